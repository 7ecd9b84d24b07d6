package options

import (
	"errors"

	genericoptions "github.com/kiosk404/echoloop/internal/pkg/options"
	"github.com/spf13/pflag"
)

// Options is the full echoloop configuration. Every field maps to a
// top-level section of the config file and a flag prefix.
type Options struct {
	Server   *genericoptions.ServerOptions `json:"server"   mapstructure:"server"`
	Auth     *AuthOptions                  `json:"auth"     mapstructure:"auth"`
	Activity *ActivityOptions              `json:"activity" mapstructure:"activity"`
	History  *HistoryOptions               `json:"history"  mapstructure:"history"`
	Models   *genericoptions.ModelOptions  `json:"models"   mapstructure:"models"`
	MCP      *MCPOptions                   `json:"mcp"      mapstructure:"mcp"`
	Store    *StoreOptions                 `json:"store"    mapstructure:"store"`
	Log      *genericoptions.LogOptions    `json:"log"      mapstructure:"log"`
}

func NewOptions() *Options {
	return &Options{
		Server:   genericoptions.NewServerOptions(),
		Auth:     NewAuthOptions(),
		Activity: NewActivityOptions(),
		History:  NewHistoryOptions(),
		Models:   genericoptions.NewModelOptions(),
		MCP:      NewMCPOptions(),
		Store:    NewStoreOptions(),
		Log:      genericoptions.NewLogOptions(),
	}
}

// AddFlags registers every option group on fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.Server.AddFlags(fs)
	o.Auth.AddFlags(fs)
	o.Activity.AddFlags(fs)
	o.History.AddFlags(fs)
	o.Models.AddFlags(fs)
	o.MCP.AddFlags(fs)
	o.Store.AddFlags(fs)
	o.Log.AddFlags(fs)
}

// Validate checks every option group.
func (o *Options) Validate() []error {
	var errs []error
	errs = append(errs, o.Server.Validate()...)
	errs = append(errs, o.Auth.Validate()...)
	errs = append(errs, o.Activity.Validate()...)
	errs = append(errs, o.History.Validate()...)
	errs = append(errs, o.Models.Validate()...)
	errs = append(errs, o.MCP.Validate()...)
	errs = append(errs, o.Store.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return errs
}

// Complete checks the options and returns all problems as one error.
func (o *Options) Complete() error {
	if o.Models.Providers == nil {
		o.Models.Providers = make(map[string]*genericoptions.ProviderConfig)
	}
	return errors.Join(o.Validate()...)
}
