package ask

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kiosk404/echoloop/internal/echoloop/cmd/util"
	v1 "github.com/kiosk404/echoloop/internal/echoloop/handler/v1"
	"github.com/spf13/cobra"
)

var askExample = heredoc.Doc(`
		# Interactive mode against the configured server
		echoloop ask

		# Single query mode
		echoloop ask "Where is the treasure?"

		# Ask a remote server with a token and a specific tool set
		echoloop ask --server=http://10.0.0.5:11780 --token=s3cret --tool-set=ecommerce "Where is order 1001?"`)

// AskOptions is an options struct to support 'ask' sub command.
type AskOptions struct {
	ServerAddr string
	Token      string
	ToolSet    string
	Goal       string
	Plain      bool
	Quiet      bool

	factory util.Factory
	util.IOStreams
}

func NewAskOptions(f util.Factory, ioStreams util.IOStreams) *AskOptions {
	return &AskOptions{factory: f, IOStreams: ioStreams}
}

// NewCmdAsk returns new initialized instance of 'ask' sub command.
func NewCmdAsk(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	o := NewAskOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "ask [QUERY]",
		DisableFlagsInUseLine: true,
		Short:                 "Run activities on an echoloop server",
		Long: heredoc.Doc(`
			Run activities on a server started with "echoloop serve" and stream
			their progress.

			Without a query, read one query per line and start one activity for each.
			The server address and token default to the server and auth settings
			of the configuration.`),
		Example: askExample,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Complete())
			util.CheckErr(o.Run(cmd.Context(), args))
		},
	}

	cmd.Flags().StringVar(&o.ServerAddr, "server", o.ServerAddr, "Server address. Default: http://<server.bind-address>:<server.bind-port>.")
	cmd.Flags().StringVar(&o.Token, "token", o.Token, "Bearer token. Default: auth.token or $ECHOLOOP_API_TOKEN.")
	cmd.Flags().StringVar(&o.ToolSet, "tool-set", o.ToolSet, "Tool set to load on the server.")
	cmd.Flags().StringVar(&o.Goal, "goal", o.Goal, "Explicit goal of the activities.")
	cmd.Flags().BoolVar(&o.Plain, "plain", o.Plain, "Print final responses without markdown rendering.")
	cmd.Flags().BoolVarP(&o.Quiet, "quiet", "q", o.Quiet, "Hide iteration and tool events.")

	return cmd
}

// Complete fills the server address and token from the configuration.
func (o *AskOptions) Complete() error {
	if o.ServerAddr == "" || o.Token == "" {
		cfg, err := o.factory.Config()
		if err != nil {
			return err
		}
		if o.ServerAddr == "" {
			o.ServerAddr = cfg.Server.Address()
		}
		if o.Token == "" && cfg.Auth.Enabled {
			o.Token = cfg.Auth.ResolveToken()
		}
	}
	if !strings.HasPrefix(o.ServerAddr, "http://") && !strings.HasPrefix(o.ServerAddr, "https://") {
		o.ServerAddr = "http://" + o.ServerAddr
	}
	return nil
}

// Run executes an ask sub command using the specified options.
func (o *AskOptions) Run(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &Session{
		Client:   NewClient(o.ServerAddr, o.Token, o.factory.HTTPClient()),
		Template: v1.RunActivityRequest{ToolSet: o.ToolSet, Goal: o.Goal},
		Markdown: !o.Plain,
		Quiet:    o.Quiet,
		In:       o.In,
		Out:      o.Out,
	}

	if len(args) > 0 {
		return s.RunOnce(ctx, strings.Join(args, " "))
	}
	return s.RunInteractive(ctx)
}
