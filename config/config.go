package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug          = "debug"
	ConfigDataPath       = "data-path"
	ConfigTTableSnapshot = "ttable-snapshot"
	ConfigTTableAutosave = "ttable-autosave"
	ConfigCPUProfile     = "cpu-profile"
	ConfigMemProfile     = "mem-profile"
	ConfigBenchWorkers   = "bench-workers"
	ConfigWarmDepth      = "warm-depth"
)

const (
	envPrefix      = "C4"
	configFileName = "c4config"
	configFileType = "yaml"
)

type Config struct {
	*viper.Viper
	args []string
}

// DefaultConfig returns a config with every key at its default and nothing
// read from the environment or disk.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigDataPath, "./data")
	c.SetDefault(ConfigTTableSnapshot, "")
	c.SetDefault(ConfigTTableAutosave, false)
	c.SetDefault(ConfigCPUProfile, "")
	c.SetDefault(ConfigMemProfile, "")
	c.SetDefault(ConfigBenchWorkers, 1)
	c.SetDefault(ConfigWarmDepth, 4)
}

// Flags returns a flag set holding every config key. Commands may add
// their own flags to it before passing it to LoadFlagSet. Parsing stops at
// the first argument that is not a flag.
func (c *Config) Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("connect4", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.Bool(ConfigDebug, false, "turn on debug logging")
	fs.String(ConfigDataPath, "./data", "directory holding the config file and table snapshots")
	fs.String(ConfigTTableSnapshot, "", "transposition table snapshot to load at startup")
	fs.Bool(ConfigTTableAutosave, false, "save the table back to the snapshot path on exit")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	fs.String(ConfigMemProfile, "", "write a heap profile to this file on exit")
	fs.Int(ConfigBenchWorkers, 1, "number of benchmark workers, each with its own table")
	fs.Int(ConfigWarmDepth, 4, "depth explored by the table warm-up")
	return fs
}

// Load layers, lowest priority first: defaults, the config file in the data
// path, C4_* environment variables (C4_DATA_PATH and so on), then flags in
// args. Arguments after the flags are kept and returned by Args.
func (c *Config) Load(args []string) error {
	return c.LoadFlagSet(c.Flags(), args)
}

// LoadFlagSet is Load with a caller-supplied flag set from Flags.
func (c *Config) LoadFlagSet(fs *pflag.FlagSet, args []string) error {
	if c.Viper == nil {
		c.Viper = viper.New()
		c.setDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.args = fs.Args()
	if err := c.BindPFlags(fs); err != nil {
		return err
	}

	c.SetEnvPrefix(envPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	c.SetConfigName(configFileName)
	c.SetConfigType(configFileType)
	c.AddConfigPath(c.GetString(ConfigDataPath))
	if err := c.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		log.Debug().Msg("no-config-file-found")
	}
	return nil
}

// Args returns the positional arguments left over by Load.
func (c *Config) Args() []string {
	return c.args
}

// Write saves the current settings to the config file, creating it in the
// data path if none was read.
func (c *Config) Write() error {
	if c.ConfigFileUsed() != "" {
		return c.WriteConfig()
	}
	dir := c.GetString(ConfigDataPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return c.WriteConfigAs(filepath.Join(dir, configFileName+"."+configFileType))
}

// SanitizedSettings is safe to log.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}

// AdjustRelativePaths makes path settings absolute, relative to basepath.
func (c *Config) AdjustRelativePaths(basepath string) {
	for _, key := range []string{ConfigDataPath, ConfigTTableSnapshot} {
		p := c.GetString(key)
		if p == "" || filepath.IsAbs(p) {
			continue
		}
		c.Set(key, filepath.Join(basepath, p))
	}
}
