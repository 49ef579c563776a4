package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type uploadArgs struct {
	name string
	file string
}

func NewUploadCmd(c *Context) *cobra.Command {
	args := &uploadArgs{}
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "upload",
		Short: "Upload a business process config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return onRunUpload(ctx, c, args)
		},
	}
	subc.PersistentFlags().StringVarP(&args.name, "name", "n", "", "config name, defaults to the file name")
	subc.PersistentFlags().StringVarP(&args.file, "file", "f", "", "local config file to upload")
	return subc
}

func onRunUpload(ctx context.Context, c *Context, args *uploadArgs) error {
	if len(args.file) == 0 {
		return fmt.Errorf("no upload file found")
	}
	name, source, err := readSource(ctx, args.file, args.name)
	if err != nil {
		return err
	}
	if err := c.loginBeforeWork(ctx); err != nil {
		return err
	}
	start := time.Now()
	rs, err := c.Client.Upload(ctx, name, source)
	if err != nil {
		return fmt.Errorf("upload config failed, err:%w", err)
	}
	if !rs.OK {
		return fmt.Errorf("upload config %s not confirmed", name)
	}
	logutil.GetLogger(ctx).Info("conf uploaded", zap.String("name", name), zap.String("message", rs.Message), zap.Duration("cost", time.Since(start)))
	return nil
}

// configName derives a config name from a file path: "/etc/bp/web.conf"
// becomes "web".
func configName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func readSource(ctx context.Context, file string, name string) (string, []byte, error) {
	source, err := os.ReadFile(file)
	if err != nil {
		return "", nil, fmt.Errorf("read config file failed, err:%w", err)
	}
	if len(name) == 0 {
		name = configName(file)
	}
	logutil.GetLogger(ctx).Debug("read config file", zap.String("file", file), zap.String("name", name), zap.String("size", humanize.IBytes(uint64(len(source)))))
	return name, source, nil
}

func init() {
	register(NewUploadCmd)
}
