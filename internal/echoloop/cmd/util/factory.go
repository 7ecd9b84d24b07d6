package util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/kiosk404/echoloop/internal/echoloop"
	"github.com/kiosk404/echoloop/internal/echoloop/config"
)

// SkipConfigAnnotation marks commands that run without loading the config file.
const SkipConfigAnnotation = "echoloop.skip-config"

// IOStreams are the standard streams of a command.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// Factory gives commands access to the loaded configuration and the
// service modules built from it.
type Factory interface {
	Loader() *config.Loader
	Config() (*config.Config, error)
	// Modules builds the service modules. Callers own the result and must Close it.
	Modules(ctx context.Context) (*echoloop.Modules, error)
	HTTPClient() *http.Client
}

type defaultFactory struct {
	loader *config.Loader
}

func NewFactory(loader *config.Loader) Factory {
	return &defaultFactory{loader: loader}
}

func (f *defaultFactory) Loader() *config.Loader {
	return f.loader
}

func (f *defaultFactory) Config() (*config.Config, error) {
	cfg := f.loader.Current()
	if cfg == nil {
		return nil, errors.New("configuration is not loaded")
	}
	return cfg, nil
}

func (f *defaultFactory) Modules(ctx context.Context) (*echoloop.Modules, error) {
	cfg, err := f.Config()
	if err != nil {
		return nil, err
	}
	return echoloop.NewModules(ctx, cfg)
}

func (f *defaultFactory) HTTPClient() *http.Client {
	// Activities stream for as long as their own timeout allows.
	return &http.Client{Timeout: 10 * time.Minute}
}

// CheckErr prints err and exits with status 1. A nil err is a no-op.
func CheckErr(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
	os.Exit(1)
}
