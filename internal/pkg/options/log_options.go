package options

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// LogOptions configures pkg/logger.
type LogOptions struct {
	Level      string `json:"level" mapstructure:"level"`
	Format     string `json:"format" mapstructure:"format"`
	OutputPath string `json:"output-path" mapstructure:"output-path"`
	// Stderr mirrors file output to stderr.
	Stderr bool `json:"stderr" mapstructure:"stderr"`
}

func NewLogOptions() *LogOptions {
	return &LogOptions{
		Level:  "info",
		Format: "text",
		Stderr: true,
	}
}

func (o *LogOptions) Validate() []error {
	var errs []error
	if _, err := logrus.ParseLevel(o.Level); err != nil {
		errs = append(errs, fmt.Errorf("--log.level: %w", err))
	}
	if o.Format != "text" && o.Format != "json" {
		errs = append(errs, fmt.Errorf("--log.format %q must be text or json", o.Format))
	}
	return errs
}

func (o *LogOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Level, "log.level", o.Level, "Minimum log level: debug, info, warn, error.")
	fs.StringVar(&o.Format, "log.format", o.Format, "Log format: text or json.")
	fs.StringVar(&o.OutputPath, "log.output-path", o.OutputPath, "Log file path. Empty logs to stderr only.")
	fs.BoolVar(&o.Stderr, "log.stderr", o.Stderr, "Also log to stderr when a log file is set.")
}
