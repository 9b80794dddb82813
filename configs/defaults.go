package configs

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

var (
	//go:embed config.example.yaml
	defaultConfigYAML string

	defaultConfigOnce  sync.Once
	defaultConfig      Config
	defaultConfigViper *viper.Viper
	defaultConfigErr   error
)

func loadDefaults() {
	defaultConfigOnce.Do(func() {
		v := viper.New()
		v.SetConfigType("yaml")
		if err := v.ReadConfig(strings.NewReader(defaultConfigYAML)); err != nil {
			defaultConfigErr = fmt.Errorf("failed to read embedded config.example.yaml: %w", err)
			return
		}

		if err := v.Unmarshal(&defaultConfig); err != nil {
			defaultConfigErr = fmt.Errorf("failed to decode embedded config.example.yaml: %w", err)
			return
		}

		defaultConfigViper = v
	})
}

// DefaultConfig returns the parsed configuration from the embedded config.example.yaml.
func DefaultConfig() (Config, error) {
	loadDefaults()
	if defaultConfigErr != nil {
		return Config{}, defaultConfigErr
	}

	return defaultConfig, nil
}

// ApplyDefaults registers every embedded key as a viper default, so a config file,
// environment or explicitly set flag always wins over it.
func ApplyDefaults(v *viper.Viper) error {
	loadDefaults()
	if defaultConfigErr != nil {
		return defaultConfigErr
	}

	for _, key := range defaultConfigViper.AllKeys() {
		v.SetDefault(key, defaultConfigViper.Get(key))
	}

	return nil
}
