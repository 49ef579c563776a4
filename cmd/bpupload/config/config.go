package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	BaseURL    string `toml:"base_url"`
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	CookieFile string `toml:"cookie_file"`
	Timeout    int64  `toml:"timeout"` // seconds
	LogLevel   string `toml:"log_level"`
}

func Parse(f string) (*Config, error) {
	raw, err := os.ReadFile(f)
	if err != nil {
		return nil, fmt.Errorf("read file:%w", err)
	}
	c := &Config{
		Timeout:  30,
		LogLevel: "info",
	}
	if err := toml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("unmarshal file:%w", err)
	}
	if len(c.BaseURL) == 0 {
		return nil, fmt.Errorf("no base_url in %s", f)
	}
	return c, nil
}

// Lookup parses explicit when it is set and fails with its error. Otherwise
// the first of fallbacks that parses wins; empty names are skipped.
func Lookup(explicit string, fallbacks []string) (*Config, error) {
	if len(explicit) != 0 {
		c, err := Parse(explicit)
		if err != nil {
			return nil, fmt.Errorf("config %s:%w", explicit, err)
		}
		return c, nil
	}
	err := fmt.Errorf("no config file given")
	for _, f := range fallbacks {
		if len(f) == 0 {
			continue
		}
		c, perr := Parse(f)
		if perr != nil {
			err = perr
			continue
		}
		return c, nil
	}
	return nil, fmt.Errorf("no valid config file found, last err:%w", err)
}
