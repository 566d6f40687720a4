package gog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func ownedServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/data/games" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestOwnsProduct(t *testing.T) {
	srv := ownedServer(t, `{"owned": [1207658930, 2034949552]}`, http.StatusOK)
	defer srv.Close()
	c := testClient(t, srv, Config{})
	ctx := context.Background()

	if !c.OwnsProduct(ctx, "1207658930") {
		t.Error("owned product reported as not owned")
	}
	if c.OwnsProduct(ctx, "42") {
		t.Error("unowned product reported as owned")
	}
}

// Undeterminable ownership reports owned; the content system is the real
// authority and still refuses links for unowned products.
func TestOwnsProductFailsOpen(t *testing.T) {
	srv := ownedServer(t, `oops`, http.StatusNotFound)
	defer srv.Close()
	c := testClient(t, srv, Config{})
	ctx := context.Background()

	if !c.OwnsProduct(ctx, "1207658930") {
		t.Error("ownership failure should report owned")
	}
	if !c.OwnsProduct(ctx, "not-a-number") {
		t.Error("unparsable id should report owned")
	}
}

func TestUserData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userData.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"username": "gamer", "isLoggedIn": true}`))
	}))
	defer srv.Close()

	c := testClient(t, srv, Config{})
	data, err := c.UserData(context.Background())
	if err != nil {
		t.Fatalf("UserData: %v", err)
	}
	if data.Username != "gamer" || !data.IsLoggedIn {
		t.Errorf("data = %+v", data)
	}
}
