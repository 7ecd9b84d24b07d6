package toolsets

import (
	"context"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/gosuri/uitable"
	"github.com/kiosk404/echoloop/internal/echoloop/cmd/util"
	"github.com/kiosk404/echoloop/internal/echoloop/service/tool"
	"github.com/spf13/cobra"
)

var toolSetsExample = heredoc.Doc(`
		# List the tool sets
		echoloop toolsets

		# Show the tools and parameters of every set
		echoloop toolsets --wide`)

// ToolSetsOptions is an options struct to support 'toolsets' sub command.
type ToolSetsOptions struct {
	Wide bool

	factory util.Factory
	util.IOStreams
}

func NewToolSetsOptions(f util.Factory, ioStreams util.IOStreams) *ToolSetsOptions {
	return &ToolSetsOptions{factory: f, IOStreams: ioStreams}
}

// NewCmdToolSets returns new initialized instance of 'toolsets' sub command.
func NewCmdToolSets(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	o := NewToolSetsOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "toolsets",
		DisableFlagsInUseLine: true,
		Aliases:               []string{"tools"},
		Short:                 "List the tool sets an activity can load",
		Long:                  "List the built-in tool sets and one tool set per connected MCP server.",
		Example:               toolSetsExample,
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Run(cmd.Context(), args))
		},
	}
	cmd.Flags().BoolVarP(&o.Wide, "wide", "w", o.Wide, "Show every tool with its parameters.")
	return cmd
}

// Run executes a toolsets sub command using the specified options.
func (o *ToolSetsOptions) Run(ctx context.Context, _ []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mods, err := o.factory.Modules(ctx)
	if err != nil {
		return err
	}
	defer mods.Close()

	sets := mods.Activity.Service.ToolSets()
	table := uitable.New()
	table.MaxColWidth = 60
	table.Wrap = true

	if !o.Wide {
		table.AddRow("NAME", "TOOLS", "DESCRIPTION")
		for _, s := range sets {
			table.AddRow(s.Name, len(buildTools(s)), s.Description)
		}
		fmt.Fprintln(o.Out, table)
		return nil
	}

	table.AddRow("TOOL SET", "TOOL", "PARAMETERS", "DESCRIPTION")
	for _, s := range sets {
		for _, t := range buildTools(s) {
			table.AddRow(s.Name, t.Name, formatParams(t.Parameters), t.Description)
		}
	}
	fmt.Fprintln(o.Out, table)
	return nil
}

func buildTools(s tool.ToolSet) []*tool.Tool {
	if s.Tools == nil {
		return nil
	}
	return s.Tools()
}

func formatParams(params []tool.ParameterDef) string {
	if len(params) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		s := fmt.Sprintf("%s:%s", p.Name, p.Type)
		if !p.Required {
			s += "?"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}
