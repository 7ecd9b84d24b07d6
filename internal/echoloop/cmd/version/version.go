package version

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kiosk404/echoloop/internal/echoloop/cmd/util"
	"github.com/kiosk404/echoloop/pkg/version"
	"github.com/spf13/cobra"
)

var versionExample = heredoc.Doc(`
		# Print the version information
		echoloop version

		# Print the version information as JSON
		echoloop version -o json

		# Print only the git version
		echoloop version --short`)

// Options is an options struct to support 'version' sub command.
type Options struct {
	Short  bool
	Output string

	util.IOStreams
}

// NewCmdVersion returns new initialized instance of 'version' sub command.
func NewCmdVersion(_ util.Factory, ioStreams util.IOStreams) *cobra.Command {
	o := &Options{IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:                   "version",
		DisableFlagsInUseLine: true,
		Short:                 "Print the version information",
		Example:               versionExample,
		Args:                  cobra.NoArgs,
		Annotations:           map[string]string{util.SkipConfigAnnotation: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Validate())
			util.CheckErr(o.Run(cmd.Context(), args))
		},
	}
	cmd.Flags().BoolVar(&o.Short, "short", o.Short, "Print only the git version.")
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "One of '', 'json'.")
	return cmd
}

func (o *Options) Validate() error {
	if o.Output != "" && o.Output != "json" {
		return fmt.Errorf("--output must be '' or 'json', got %q", o.Output)
	}
	return nil
}

// Run executes a version sub command using the specified options.
func (o *Options) Run(_ context.Context, _ []string) error {
	info := version.Get()
	switch {
	case o.Short:
		fmt.Fprintln(o.Out, info.String())
	case o.Output == "json":
		fmt.Fprintln(o.Out, info.ToJSON())
	default:
		fmt.Fprintln(o.Out, info.Text())
	}
	return nil
}
