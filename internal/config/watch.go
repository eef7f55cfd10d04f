package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// WatchConfig holds configuration for the watch command.
type WatchConfig struct {
	Config
	Out       string
	PGDSN     string
	StateFile string
	StateName string
	Interval  time.Duration
	Once      bool
}

// LoadWatch merges config file, environment variables, and flags into WatchConfig.
func LoadWatch(cfgFile string, flags *pflag.FlagSet) (WatchConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return WatchConfig{}, err
	}
	v.SetDefault("interval", 10*time.Second)
	v.SetDefault("once", false)
	v.SetDefault("state-name", "default")

	return WatchConfig{
		Config:    readConfig(v),
		Out:       v.GetString("out"),
		PGDSN:     v.GetString("pg-dsn"),
		StateFile: v.GetString("state-file"),
		StateName: v.GetString("state-name"),
		Interval:  v.GetDuration("interval"),
		Once:      v.GetBool("once"),
	}, nil
}

// Validate checks the watch settings on top of the shared ones.
func (c WatchConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.Out == "" && c.PGDSN == "" {
		return fmt.Errorf("out path or pg dsn is required")
	}
	if !c.Once && c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	return nil
}
