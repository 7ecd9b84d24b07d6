package cmd

import (
	"io"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kiosk404/echoloop/internal/echoloop/cmd/ask"
	"github.com/kiosk404/echoloop/internal/echoloop/cmd/run"
	"github.com/kiosk404/echoloop/internal/echoloop/cmd/serve"
	"github.com/kiosk404/echoloop/internal/echoloop/cmd/toolsets"
	cmdutil "github.com/kiosk404/echoloop/internal/echoloop/cmd/util"
	cmdversion "github.com/kiosk404/echoloop/internal/echoloop/cmd/version"
	"github.com/kiosk404/echoloop/internal/echoloop/config"
	"github.com/kiosk404/echoloop/internal/echoloop/options"
	"github.com/kiosk404/echoloop/pkg/logger"
	"github.com/kiosk404/echoloop/pkg/version/verflag"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// NewDefaultEcholoopCommand creates the `echoloop` command with default arguments.
func NewDefaultEcholoopCommand() *cobra.Command {
	return NewEcholoopCommand(os.Stdin, os.Stdout, os.Stderr)
}

func NewEcholoopCommand(in io.Reader, out, err io.Writer) *cobra.Command {
	var cfgFile string

	v := viper.New()
	loader := config.NewLoader(v)

	// Parent command to which all subcommands are added.
	cmds := &cobra.Command{
		Use:   "echoloop",
		Short: "echoloop runs tool-using agent activities",
		Long: heredoc.Docf(`%s
			echoloop drives an agent through bounded think-act-observe iterations.

			Each activity asks a decision oracle what to do next, runs the selected
			tools, records the outcome in a bounded history and stops on a final
			response, the iteration limit or the time limit.

			Activities run locally with "echoloop run" or through the HTTP API
			started by "echoloop serve".`, Banner()),
		Run:           runHelp,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verflag.PrintAndExitIfRequested()
			if cmd.Annotations[cmdutil.SkipConfigAnnotation] == "true" {
				return nil
			}
			cfg, err := loader.Load(cfgFile)
			if err != nil {
				return err
			}
			return logger.InitLog(cfg.Log.OutputPath,
				logger.WithLevel(cfg.Log.Level),
				logger.WithFormat(cfg.Log.Format),
				logger.WithStderr(cfg.Log.Stderr),
			)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.FlushLog()
		},
	}
	cmds.SetIn(in)
	cmds.SetOut(out)
	cmds.SetErr(err)

	flags := cmds.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Config file (default: ./echoloop.yaml, ./conf/echoloop.yaml or ~/.echoloop/echoloop.yaml).")

	// Only option flags back viper keys.
	optionFlags := pflag.NewFlagSet("options", pflag.ContinueOnError)
	options.NewOptions().AddFlags(optionFlags)
	_ = v.BindPFlags(optionFlags)
	flags.AddFlagSet(optionFlags)

	verflag.AddFlags(flags)

	ioStreams := cmdutil.IOStreams{In: in, Out: out, ErrOut: err}
	f := cmdutil.NewFactory(loader)

	cmds.AddGroup(
		&cobra.Group{ID: "basic", Title: "Basic Commands:"},
		&cobra.Group{ID: "inspect", Title: "Inspection Commands:"},
	)
	for _, c := range []*cobra.Command{
		run.NewCmdRun(f, ioStreams),
		serve.NewCmdServe(f, ioStreams),
		ask.NewCmdAsk(f, ioStreams),
	} {
		c.GroupID = "basic"
		cmds.AddCommand(c)
	}
	for _, c := range []*cobra.Command{
		toolsets.NewCmdToolSets(f, ioStreams),
		cmdversion.NewCmdVersion(f, ioStreams),
	} {
		c.GroupID = "inspect"
		cmds.AddCommand(c)
	}

	return cmds
}

func runHelp(cmd *cobra.Command, args []string) {
	_ = cmd.Help()
}
