package gog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/depotdl/depotdl/pkg/errors"
)

func TestBuildsDecodesListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/1207658930/os/windows/builds" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("generation"); got != "2" {
			t.Errorf("generation param = %q, want 2", got)
		}
		w.Write([]byte(`{
			"total_count": 2,
			"count": 2,
			"items": [
				{"build_id": "A", "product_id": "1207658930", "os": "windows", "branch": null, "generation": 2, "link": "https://cdn/meta/A"},
				{"build_id": "B", "product_id": "1207658930", "os": "windows", "branch": "beta", "generation": 2}
			]
		}`))
	}))
	defer srv.Close()

	c := testClient(t, srv, Config{})
	list, err := c.Builds(context.Background(), "1207658930", "windows", "")
	if err != nil {
		t.Fatalf("Builds: %v", err)
	}

	if len(list.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(list.Items))
	}
	if list.Items[0].Branch != nil {
		t.Errorf("items[0].Branch = %v, want nil for the default branch", *list.Items[0].Branch)
	}
	if list.Items[1].Branch == nil || *list.Items[1].Branch != "beta" {
		t.Errorf("items[1].Branch = %v, want beta", list.Items[1].Branch)
	}
}

func TestBuildsPassesBranchPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("password"); got != "hunter2" {
			t.Errorf("password param = %q, want hunter2", got)
		}
		w.Write([]byte(`{"count": 0, "items": []}`))
	}))
	defer srv.Close()

	c := testClient(t, srv, Config{})
	if _, err := c.Builds(context.Background(), "1207", "linux", "hunter2"); err != nil {
		t.Fatalf("Builds: %v", err)
	}
}

func TestBuildsRejectsBadInput(t *testing.T) {
	c := NewClient(Config{})

	_, err := c.Builds(context.Background(), "", "windows", "")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty product err = %v, want INVALID_INPUT", err)
	}

	_, err = c.Builds(context.Background(), "1207", "amiga", "")
	if !errors.Is(err, errors.ErrCodeInvalidPlatform) {
		t.Errorf("bad platform err = %v, want INVALID_PLATFORM", err)
	}
}

func TestBuildsMapsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(t, srv, Config{})
	_, err := c.Builds(context.Background(), "999", "windows", "")
	if !errors.Is(err, errors.ErrCodeProductNotFound) {
		t.Errorf("err = %v, want PRODUCT_NOT_FOUND", err)
	}
}

func TestManifestBytes(t *testing.T) {
	payload := []byte("raw manifest payload")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	c := testClient(t, srv, Config{})
	got, err := c.ManifestBytes(context.Background(), srv.URL+"/manifest")
	if err != nil {
		t.Fatalf("ManifestBytes: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("body = %q, want %q", got, payload)
	}
}
