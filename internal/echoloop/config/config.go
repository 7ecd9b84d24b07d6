// Package config loads the running configuration from flags, the
// environment and an optional config file, and reloads it on change.
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/kiosk404/echoloop/internal/echoloop/options"
	"github.com/kiosk404/echoloop/pkg/logger"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ECHOLOOP_ACTIVITY_MAX_ITERATIONS.
const EnvPrefix = "ECHOLOOP"

// Config is the running configuration of echoloop.
type Config struct {
	*options.Options
}

// Loader binds viper to the options. Keys follow the flag names, so
// "activity.max-iterations" is read from the activity section of the file.
type Loader struct {
	v *viper.Viper

	mu      sync.Mutex
	current *Config
}

func NewLoader(v *viper.Viper) *Loader {
	if v == nil {
		v = viper.New()
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Viper returns the underlying viper instance.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load reads cfgFile, or echoloop.{yaml,json,toml} from ., ./conf and
// $HOME/.echoloop when cfgFile is empty. Only an explicit file must exist.
func (l *Loader) Load(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		l.v.SetConfigFile(cfgFile)
	} else {
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("conf")
		l.v.AddConfigPath("$HOME/.echoloop")
		l.v.SetConfigName("echoloop")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		logger.Info("[Config] using config file %s", l.v.ConfigFileUsed())
	}

	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

func (l *Loader) decode() (*Config, error) {
	opts := options.NewOptions()
	if err := l.v.Unmarshal(opts); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := opts.Complete(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Config{opts}, nil
}

// Current returns the last successfully loaded configuration.
func (l *Loader) Current() *Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Watch calls onChange with the new configuration whenever the config file
// changes. Invalid edits are logged and the previous configuration is kept.
func (l *Loader) Watch(onChange func(*Config)) {
	if l.v.ConfigFileUsed() == "" {
		logger.Debug("[Config] no config file, hot reload disabled")
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		l.reload(e.Name, onChange)
	})
	l.v.WatchConfig()
	logger.Info("[Config] watching %s for changes", l.v.ConfigFileUsed())
}

func (l *Loader) reload(name string, onChange func(*Config)) {
	cfg, err := l.decode()
	if err != nil {
		logger.Warn("[Config] ignoring change to %s: %v", name, err)
		return
	}
	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()

	logger.Info("[Config] reloaded %s", name)
	if onChange != nil {
		onChange(cfg)
	}
}
