package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type updateArgs struct {
	name  string
	files []string
}

func NewUpdateCmd(c *Context) *cobra.Command {
	args := &updateArgs{}
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "update",
		Short: "Replace business process configs (delete, then upload)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return onRunUpdate(ctx, c, args)
		},
	}
	subc.PersistentFlags().StringVarP(&args.name, "name", "n", "", "config name, only valid with a single file")
	subc.PersistentFlags().StringSliceVarP(&args.files, "file", "f", nil, "local config files, repeatable")
	return subc
}

func onRunUpdate(ctx context.Context, c *Context, args *updateArgs) error {
	if len(args.files) == 0 {
		return fmt.Errorf("no update file found")
	}
	if len(args.name) != 0 && len(args.files) > 1 {
		return fmt.Errorf("--name can not be used with multiple files")
	}
	if err := c.loginBeforeWork(ctx); err != nil {
		return err
	}
	var failed []string
	for _, file := range args.files {
		name, source, err := readSource(ctx, file, args.name)
		if err != nil {
			logutil.GetLogger(ctx).Error("skip config file", zap.String("file", file), zap.Error(err))
			failed = append(failed, file)
			continue
		}
		rs := c.Client.Update(ctx, name, source)
		if !rs.Upload.Succeeded() {
			failed = append(failed, file)
		}
	}
	if len(failed) != 0 {
		return fmt.Errorf("update failed for %d of %d files: %v", len(failed), len(args.files), failed)
	}
	return nil
}

func init() {
	register(NewUpdateCmd)
}
