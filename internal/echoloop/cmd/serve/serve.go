package serve

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/kiosk404/echoloop/internal/echoloop"
	"github.com/kiosk404/echoloop/internal/echoloop/cmd/util"
	"github.com/spf13/cobra"
)

var serveExample = heredoc.Doc(`
		# Serve the HTTP API on the configured address
		echoloop serve

		# Serve on all interfaces with a bearer token
		ECHOLOOP_API_TOKEN=s3cret echoloop serve --server.bind-address=0.0.0.0 --auth.enabled

		# Serve with a config file; edits to its limits apply without a restart
		echoloop serve -c conf/echoloop.yaml`)

// NewCmdServe returns new initialized instance of 'serve' sub command.
func NewCmdServe(f util.Factory, _ util.IOStreams) *cobra.Command {
	return &cobra.Command{
		Use:                   "serve",
		DisableFlagsInUseLine: true,
		Short:                 "Serve the activity HTTP API",
		Long: heredoc.Doc(`
			Serve the activity HTTP API until interrupted.

			Routes:
			  POST   /v1/activities          run an activity to completion
			  POST   /v1/activities/stream   run an activity and stream its events (SSE)
			  GET    /v1/activities          list stored activities
			  GET    /v1/activities/:id      get one stored activity
			  DELETE /v1/activities/:id      delete one stored activity
			  GET    /v1/toolsets            list loadable tool sets
			  GET    /v1/limits              show the live activity limits
			  GET    /v1/models              list the configured models`),
		Example: serveExample,
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(echoloop.Run(f.Loader()))
		},
	}
}
