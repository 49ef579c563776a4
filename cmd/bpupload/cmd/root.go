package cmd

import (
	"context"
	"errors"
	"os"
	"time"

	bpupload "github.com/penn-automate/icinga-bp-upload"
	"github.com/penn-automate/icinga-bp-upload/cmd/bpupload/config"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	configFileEnv     = "BPUPLOAD_CONFIG"
	defaultConfigFile = "/etc/bpupload/config.toml"
)

var errLoginNotConfirmed = errors.New("login not confirmed by icinga")

var cmds []CreateFunc

type CreateFunc func(c *Context) *cobra.Command

func register(cr CreateFunc) {
	cmds = append(cmds, cr)
}

// Context is shared by all subcommands; it is filled before any of them runs.
type Context struct {
	Client *bpupload.Client
	Config *config.Config
}

func (c *Context) open(configFile string) error {
	cfg, err := config.Lookup(configFile, []string{os.Getenv(configFileEnv), defaultConfigFile})
	if err != nil {
		return err
	}
	lg := logger.Init("", cfg.LogLevel, 0, 0, 0, true)
	cli, err := bpupload.New(bpupload.Config{
		BaseURL:    cfg.BaseURL,
		Username:   cfg.Username,
		Password:   cfg.Password,
		CookieFile: cfg.CookieFile,
		Timeout:    time.Duration(cfg.Timeout) * time.Second,
		Logger:     lg,
	})
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Client = cli
	return nil
}

// Login authenticates the session. Icinga confirms a login made over XHR
// with an X-Icinga-Redirect header; without it errLoginNotConfirmed is
// returned.
func (c *Context) Login(ctx context.Context) error {
	resp, err := c.Client.Login(ctx)
	if err != nil {
		logutil.GetLogger(ctx).Error("login failed", zap.String("url", c.Config.BaseURL), zap.Error(err))
		return err
	}
	defer resp.Body.Close()
	redirect := resp.Header.Get("X-Icinga-Redirect")
	if len(redirect) == 0 {
		logutil.GetLogger(ctx).Warn("login not confirmed", zap.Int("status", resp.StatusCode), zap.String("user", c.Config.Username))
		return errLoginNotConfirmed
	}
	logutil.GetLogger(ctx).Debug("login succ", zap.String("redirect", redirect))
	return nil
}

// loginBeforeWork logs in ahead of delete/upload/update. An unconfirmed
// login is tolerated there: the form posts report their own result.
func (c *Context) loginBeforeWork(ctx context.Context) error {
	if err := c.Login(ctx); err != nil && !errors.Is(err, errLoginNotConfirmed) {
		return err
	}
	return nil
}

func NewRoot() *cobra.Command {
	c := &Context{}
	var configFile string
	root := &cobra.Command{
		Use:          "bpupload",
		Short:        "Manage Icinga Web 2 business process configs",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return c.open(configFile)
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file, overrides $"+configFileEnv)
	for _, cr := range cmds {
		root.AddCommand(cr(c))
	}
	return root
}
