package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func NewLoginCmd(c *Context) *cobra.Command {
	ctx := context.Background()
	return &cobra.Command{
		Use:   "login",
		Short: "Check the configured credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Login(ctx)
		},
	}
}

func init() {
	register(NewLoginCmd)
}
