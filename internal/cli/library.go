package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// libraryCommand creates the library command listing owned products.
func (c *CLI) libraryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "library",
		Short: "List the product ids the account owns",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			client, err := c.newClient(cfg)
			if err != nil {
				return err
			}

			owned, err := client.OwnedProducts(ctx)
			if err != nil {
				return err
			}

			for _, id := range owned {
				fmt.Println(id)
			}
			loggerFromContext(ctx).Info("library listed", "products", len(owned))
			return nil
		},
	}
}
