package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skillian/errors"
	"github.com/spf13/viper"
	"github.com/studiointeract/qbankapi2wrapper/web"
)

const (
	defaultConfigDir      = ".qbank"
	defaultConfigFilename = "config.yaml"

	envPrefix = "QBANK"
)

// configKeys are the settings that can come from the configuration file,
// the environment or flags.
var configKeys = []string{"endpoint", "token", "chaining", "timeout"}

// Config is the configuration of the qb command.
type Config struct {
	// Endpoint is the base URL of the QBank API.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`

	// Token is the API token.  Obtaining it is up to the user.
	Token string `mapstructure:"token" yaml:"token" json:"token"`

	// Chaining is false for servers that cannot resolve references
	// between the calls of a batch.
	Chaining bool `mapstructure:"chaining" yaml:"chaining" json:"chaining"`

	// Timeout bounds every round trip.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

// MaskedToken gets the token with all but its ends hidden.
func (c Config) MaskedToken() string {
	switch n := len(c.Token); {
	case n == 0:
		return "(not set)"
	case n <= 8:
		return strings.Repeat("*", n)
	default:
		return c.Token[:4] + "..." + c.Token[n-4:]
	}
}

// defaultConfigPath gets the configuration file used when none is given.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(defaultConfigDir, defaultConfigFilename)
	}
	return filepath.Join(home, defaultConfigDir, defaultConfigFilename)
}

// loadConfig reads the configuration through v.  Settings in the
// environment override the file.  An explicitly named file must exist; the
// default one is optional.
func loadConfig(v *viper.Viper, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}

	v.SetDefault("chaining", true)
	v.SetDefault("timeout", web.DefaultTimeout.String())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, k := range configKeys {
		_ = v.BindEnv(k)
	}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		v.SetConfigFile(path)
		if err = v.ReadInConfig(); err != nil {
			return nil, errors.ErrorfWithCause(
				err, "failed to read configuration file %q: %v",
				path, err)
		}
		logger.Debug1("using configuration file %q", path)
	case explicit || !os.IsNotExist(err):
		return nil, errors.ErrorfWithCause(
			err, "failed to open configuration file %q: %v",
			path, err)
	}

	cfg := &Config{}
	if err = v.Unmarshal(cfg); err != nil {
		return nil, errors.ErrorfWithCause(
			err, "failed to decode configuration: %v", err)
	}
	return cfg, nil
}

// validate makes sure the configuration can be used to reach the server.
func (c *Config) validate() error {
	if c.Endpoint == "" {
		return errors.Errorf(
			"no endpoint configured; use --endpoint, %s_ENDPOINT "+
				"or the configuration file", envPrefix)
	}
	if c.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, not %v", c.Timeout)
	}
	return nil
}
