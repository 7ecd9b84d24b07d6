package run

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/fatih/color"
	"github.com/kiosk404/echoloop/internal/echoloop/cmd/util"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/service"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/service/runtime"
	"github.com/kiosk404/echoloop/pkg/utils/json"
	"github.com/spf13/cobra"
)

var runExample = heredoc.Doc(`
		# Run the treasure hunt with the configured oracle
		echoloop run "Where is the treasure?"

		# Replay the built-in demo without a model
		echoloop run --activity.oracle=scripted "Where is the treasure?"

		# Confirm every decision before it is carried out
		echoloop run --step --tool-set=events "Find jazz concerts in Seattle"

		# Print the full result as JSON
		echoloop run -o json --goal="Book a table" "Plan dinner for Friday"`)

const (
	outputText = "text"
	outputJSON = "json"
)

// RunOptions is an options struct to support 'run' sub command.
type RunOptions struct {
	Goal       string
	ToolSet    string
	ActivityID string
	Step       bool
	Verbose    bool
	Output     string

	factory util.Factory
	util.IOStreams
}

func NewRunOptions(f util.Factory, ioStreams util.IOStreams) *RunOptions {
	return &RunOptions{
		Output:    outputText,
		factory:   f,
		IOStreams: ioStreams,
	}
}

// NewCmdRun returns new initialized instance of 'run' sub command.
func NewCmdRun(f util.Factory, ioStreams util.IOStreams) *cobra.Command {
	o := NewRunOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "run QUERY",
		DisableFlagsInUseLine: true,
		Short:                 "Run one activity locally and print its result",
		Long: heredoc.Doc(`
			Run one activity in this process and print its result.

			The activity uses the oracle, limits and store from the configuration.
			With --step every decision is printed before it is carried out and the
			run waits for Enter. Typing q stops the activity.`),
		Example: runExample,
		Args:    cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Validate())
			util.CheckErr(o.Run(cmd.Context(), args))
		},
	}

	cmd.Flags().StringVar(&o.Goal, "goal", o.Goal, "Explicit goal of the activity.")
	cmd.Flags().StringVar(&o.ToolSet, "tool-set", o.ToolSet, "Tool set to load. Default: activity.default-tool-set.")
	cmd.Flags().StringVar(&o.ActivityID, "id", o.ActivityID, "Activity ID. Default: a generated one.")
	cmd.Flags().BoolVar(&o.Step, "step", o.Step, "Print each decision and wait for Enter before carrying it out.")
	cmd.Flags().BoolVarP(&o.Verbose, "verbose", "v", o.Verbose, "Print every decision, tool result and the final history.")
	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "Output format: text or json.")

	return cmd
}

func (o *RunOptions) Validate() error {
	if o.Output != outputText && o.Output != outputJSON {
		return fmt.Errorf("--output must be %s or %s, got %q", outputText, outputJSON, o.Output)
	}
	return nil
}

// Run executes a run sub command using the specified options.
func (o *RunOptions) Run(ctx context.Context, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return errors.New("a query is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mods, err := o.factory.Modules(ctx)
	if err != nil {
		return err
	}
	defer mods.Close()

	result, err := mods.Activity.Service.Run(ctx, &service.RunActivityRequest{
		UserQuery:  query,
		Goal:       o.Goal,
		ActivityID: o.ActivityID,
		ToolSet:    o.ToolSet,
		Observer:   o.observer(cancel),
	})
	if err != nil {
		return err
	}

	if o.Output == outputJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(o.Out, string(data))
		return nil
	}
	o.printResult(result)
	return nil
}

func (o *RunOptions) observer(stop context.CancelFunc) runtime.Observer {
	if !o.Step && !o.Verbose {
		return nil
	}
	var in *bufio.Reader
	if o.Step && o.In != nil {
		in = bufio.NewReader(o.In)
	}

	return runtime.ObserverFuncs{
		Iteration: func(state *entity.ConversationState, decision *entity.ActionDecision) {
			printDecision(o.Out, decision)
			if in == nil || decision.ActionType == entity.ActionFinalResponse {
				return
			}
			fmt.Fprint(o.Out, color.HiBlackString("Press Enter to continue, q to stop: "))
			line, err := in.ReadString('\n')
			if strings.EqualFold(strings.TrimSpace(line), "q") || errors.Is(err, io.EOF) {
				stop()
			}
		},
		ToolResult: func(_ string, _ int, result entity.ToolExecutionResult) {
			if o.Verbose {
				printToolResult(o.Out, result)
			}
		},
	}
}

func printDecision(w io.Writer, d *entity.ActionDecision) {
	fmt.Fprintln(w, color.New(color.Bold, color.FgCyan).Sprintf("Iteration %d/%d: %s", d.IterationCount, d.MaxIterations, d.ActionType))
	if d.Reasoning != "" {
		fmt.Fprintf(w, "  Reasoning: %s\n", d.Reasoning)
	}
	for _, call := range d.ToolCalls {
		args, _ := json.MarshalToString(call.Arguments)
		fmt.Fprintf(w, "  Tool: %s %s\n", color.YellowString(call.ToolName), args)
	}
	if d.FinalResponse != "" {
		fmt.Fprintf(w, "  Final response: %s\n", d.FinalResponse)
	}
	fmt.Fprintf(w, "  Continue: %t (confidence %.2f)\n", d.ShouldContinue, d.ConfidenceScore)
}

func printToolResult(w io.Writer, r entity.ToolExecutionResult) {
	if r.Success {
		out, _ := json.MarshalToString(r.Result)
		fmt.Fprintf(w, "  %s %s -> %s\n", color.GreenString("ok"), r.ToolName, out)
		return
	}
	fmt.Fprintf(w, "  %s %s -> %s\n", color.RedString("failed"), r.ToolName, r.Error)
}

func (o *RunOptions) printResult(result *entity.ActivityResult) {
	if o.Verbose && result.ConversationState != nil {
		fmt.Fprintln(o.Out, color.New(color.Bold).Sprint("History:"))
		fmt.Fprintln(o.Out, runtime.FormatForHuman(result.ConversationState.ConversationHistory))
		fmt.Fprintln(o.Out)
	}

	status := string(result.Status)
	if result.Status == entity.ActivityStatusCompleted {
		status = color.GreenString(status)
	} else {
		status = color.YellowString(status)
	}
	fmt.Fprintf(o.Out, "%s %s\n", color.New(color.Bold).Sprint("Status:"), status)
	fmt.Fprintln(o.Out, result.Summary())
}
