package options

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
)

// MCPOptions points at the standalone MCP server file (mcp.json layout).
type MCPOptions struct {
	ConfigFile     string        `json:"config-file" mapstructure:"config-file"`
	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
}

func NewMCPOptions() *MCPOptions {
	return &MCPOptions{
		ConfigFile:     "conf/mcp.json",
		ConnectTimeout: 30 * time.Second,
	}
}

func (o *MCPOptions) Validate() []error {
	var errs []error
	if o.ConfigFile == "" {
		errs = append(errs, errors.New("--mcp.config-file is required"))
	}
	if o.ConnectTimeout < 0 {
		errs = append(errs, errors.New("--mcp.connect-timeout must not be negative"))
	}
	return errs
}

func (o *MCPOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ConfigFile, "mcp.config-file", o.ConfigFile, "Path to the MCP configuration file.")
	fs.DurationVar(&o.ConnectTimeout, "mcp.connect-timeout", o.ConnectTimeout, "Time allowed for each MCP server handshake. 0 disables the limit.")
}

// StoreOptions selects where activity results are kept.
type StoreOptions struct {
	Type       string `json:"type" mapstructure:"type"`
	BoltDBPath string `json:"boltdb-path" mapstructure:"boltdb-path"`
}

func NewStoreOptions() *StoreOptions {
	return &StoreOptions{
		Type:       "inmemory",
		BoltDBPath: "data/echoloop.db",
	}
}

func (o *StoreOptions) Validate() []error {
	var errs []error
	switch o.Type {
	case "inmemory":
	case "boltdb":
		if o.BoltDBPath == "" {
			errs = append(errs, errors.New("--store.boltdb-path is required for the boltdb store"))
		}
	default:
		errs = append(errs, fmt.Errorf("--store.type %q must be inmemory or boltdb", o.Type))
	}
	return errs
}

func (o *StoreOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Type, "store.type", o.Type, "Activity store: inmemory or boltdb.")
	fs.StringVar(&o.BoltDBPath, "store.boltdb-path", o.BoltDBPath, "BoltDB file of the boltdb store.")
}

// TokenEnv holds the API token when auth.token is empty.
const TokenEnv = "ECHOLOOP_API_TOKEN"

// AuthOptions configures bearer token authentication of the HTTP API.
type AuthOptions struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Token   string `json:"token" mapstructure:"token"`
	// AllowLocal skips authentication for loopback clients.
	AllowLocal bool `json:"allow-local" mapstructure:"allow-local"`
}

func NewAuthOptions() *AuthOptions {
	return &AuthOptions{AllowLocal: true}
}

// ResolveToken returns the configured token, falling back to ECHOLOOP_API_TOKEN.
func (o *AuthOptions) ResolveToken() string {
	if o.Token != "" {
		return o.Token
	}
	return os.Getenv(TokenEnv)
}

func (o *AuthOptions) Validate() []error {
	if o.Enabled && o.ResolveToken() == "" {
		return []error{fmt.Errorf("--auth.enabled needs --auth.token or %s", TokenEnv)}
	}
	return nil
}

func (o *AuthOptions) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Enabled, "auth.enabled", o.Enabled, "Require a bearer token on the /v1 API.")
	fs.StringVar(&o.Token, "auth.token", o.Token, "Bearer token. Falls back to $"+TokenEnv+".")
	fs.BoolVar(&o.AllowLocal, "auth.allow-local", o.AllowLocal, "Skip authentication for loopback clients.")
}
