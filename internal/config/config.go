package config

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfigName is the config file looked up in the config directory.
const ConfigName = "buildmap.json"

// Load sets default values, then reads ConfigName from configDir if it exists. Environment variables
// prefixed with BUILDMAP_ override both.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("overwrite", false)
	viper.SetDefault("jsonIndent", "  ")

	viper.SetEnvPrefix("BUILDMAP")
	viper.AutomaticEnv()

	viper.SetConfigName(ConfigName)
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"log-level":   "logLevel",
	"overwrite":   "overwrite",
	"json-indent": "jsonIndent",
}

// BindFlags lets command line flags override every other source. Only flags the user set take
// effect; unset flags fall through to the config file and defaults.
func BindFlags(flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", key, err)
		}
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
