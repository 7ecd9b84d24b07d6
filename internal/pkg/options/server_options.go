package options

import (
	"fmt"
	"net"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
)

// ServerOptions configures the HTTP API server.
type ServerOptions struct {
	BindAddress     string        `json:"bind-address" mapstructure:"bind-address"`
	BindPort        int           `json:"bind-port" mapstructure:"bind-port"`
	Mode            string        `json:"mode" mapstructure:"mode"`
	Healthz         bool          `json:"healthz" mapstructure:"healthz"`
	EnableProfiling bool          `json:"profiling" mapstructure:"profiling"`
	EnableCORS      bool          `json:"cors" mapstructure:"cors"`
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		BindAddress:     "127.0.0.1",
		BindPort:        11780,
		Mode:            gin.ReleaseMode,
		Healthz:         true,
		EnableProfiling: false,
		EnableCORS:      true,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Address returns host:port.
func (s *ServerOptions) Address() string {
	return net.JoinHostPort(s.BindAddress, fmt.Sprintf("%d", s.BindPort))
}

func (s *ServerOptions) Validate() []error {
	var errs []error
	if s.BindPort < 0 || s.BindPort > 65535 {
		errs = append(errs, fmt.Errorf("--server.bind-port %v must be between 0 and 65535", s.BindPort))
	}
	switch s.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		errs = append(errs, fmt.Errorf("--server.mode %q must be one of debug, release, test", s.Mode))
	}
	if s.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("--server.shutdown-timeout must not be negative"))
	}
	return errs
}

func (s *ServerOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&s.BindAddress, "server.bind-address", s.BindAddress, "The IP address on which to serve the HTTP API.")
	fs.IntVar(&s.BindPort, "server.bind-port", s.BindPort, "The port on which to serve the HTTP API.")
	fs.StringVar(&s.Mode, "server.mode", s.Mode, "Server mode. Supported: debug, test, release.")
	fs.BoolVar(&s.Healthz, "server.healthz", s.Healthz, "Add a /healthz endpoint.")
	fs.BoolVar(&s.EnableProfiling, "server.profiling", s.EnableProfiling, "Enable profiling via web interface host:port/debug/pprof/.")
	fs.BoolVar(&s.EnableCORS, "server.cors", s.EnableCORS, "Allow cross-origin requests.")
	fs.DurationVar(&s.ShutdownTimeout, "server.shutdown-timeout", s.ShutdownTimeout, "How long to wait for in-flight requests on shutdown.")
}
