package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Bootstrap locates the database and the remote services. It is read once at
// startup, unlike Settings which live in the database.
type Bootstrap struct {
	Database string       `mapstructure:"database"`
	Listen   string       `mapstructure:"listen"`
	Grocy    RemoteConfig `mapstructure:"grocy"`
	Lookup   RemoteConfig `mapstructure:"lookup"`
}

// RemoteConfig describes one HTTP collaborator.
type RemoteConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	Enabled bool          `mapstructure:"enabled"`
}

// LoadBootstrap reads the bootstrap file at path (YAML, TOML or JSON by
// extension) and overlays BBUDDY_* environment variables, for example
// BBUDDY_GROCY_API_KEY. An empty path or a missing file yields defaults.
func LoadBootstrap(path string) (Bootstrap, error) {
	v := viper.New()
	v.SetDefault("database", "./barcodebuddy.db")
	v.SetDefault("listen", ":8080")
	v.SetDefault("grocy.timeout", 10*time.Second)
	v.SetDefault("lookup.url", "https://world.openfoodfacts.org")
	v.SetDefault("lookup.timeout", 5*time.Second)
	v.SetDefault("lookup.enabled", true)

	v.SetEnvPrefix("BBUDDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range []string{"grocy.url", "grocy.api_key"} {
		if err := v.BindEnv(key); err != nil {
			return Bootstrap{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Bootstrap{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var b Bootstrap
	if err := v.Unmarshal(&b); err != nil {
		return Bootstrap{}, fmt.Errorf("decoding config: %w", err)
	}
	return b, nil
}

// ApplyRemote seeds the stored Grocy credentials from the bootstrap file.
// Values left empty in the file do not clear stored credentials.
func (s *Store) ApplyRemote(ctx context.Context, b Bootstrap) error {
	values := map[string]string{}
	if b.Grocy.URL != "" {
		values[KeyGrocyAPIURL] = b.Grocy.URL
	}
	if b.Grocy.APIKey != "" {
		values[KeyGrocyAPIKey] = b.Grocy.APIKey
	}
	if len(values) == 0 {
		return nil
	}
	return s.UpdateMany(ctx, values)
}
