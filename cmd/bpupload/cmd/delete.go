package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type deleteArgs struct {
	name string
}

func NewDeleteCmd(c *Context) *cobra.Command {
	args := &deleteArgs{}
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "delete",
		Short: "Delete a business process config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return onRunDelete(ctx, c, args)
		},
	}
	subc.PersistentFlags().StringVarP(&args.name, "name", "n", "", "config name")
	return subc
}

func onRunDelete(ctx context.Context, c *Context, args *deleteArgs) error {
	if len(args.name) == 0 {
		return fmt.Errorf("no config name found")
	}
	if err := c.loginBeforeWork(ctx); err != nil {
		return err
	}
	rs, err := c.Client.Delete(ctx, args.name)
	if err != nil {
		return fmt.Errorf("delete config failed, err:%w", err)
	}
	if !rs.OK {
		return fmt.Errorf("delete config %s not confirmed", args.name)
	}
	logutil.GetLogger(ctx).Info("conf deleted", zap.String("name", args.name), zap.String("redirect", rs.Message))
	return nil
}

func init() {
	register(NewDeleteCmd)
}
