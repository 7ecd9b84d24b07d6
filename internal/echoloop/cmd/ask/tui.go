package ask

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	v1 "github.com/kiosk404/echoloop/internal/echoloop/handler/v1"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/pkg/utils/json"
	"github.com/kiosk404/echoloop/pkg/version"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	agentStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
)

// Session is one interactive or single-shot conversation with a server.
type Session struct {
	Client   *Client
	Template v1.RunActivityRequest
	// Markdown renders final responses with glamour.
	Markdown bool
	// Quiet hides iteration and tool events.
	Quiet bool

	In  io.Reader
	Out io.Writer
}

func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 80
}

// renderMarkdown renders content for terminal display, or returns it
// unchanged when rendering fails.
func renderMarkdown(content string, width int) string {
	if width <= 0 {
		width = 76
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithColorProfile(termenv.ANSI256),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

func (s *Session) separator() {
	n := termWidth(s.Out) - 2
	if n < 20 {
		n = 20
	}
	fmt.Fprintln(s.Out, dimStyle.Render(strings.Repeat("-", n)))
}

func (s *Session) printWelcome() {
	s.separator()
	fmt.Fprintln(s.Out, titleStyle.Render("Echoloop "+version.Get().String()))
	fmt.Fprintln(s.Out)
	fmt.Fprintf(s.Out, "  Server:   %s\n", s.Client.BaseURL)
	toolSet := s.Template.ToolSet
	if toolSet == "" {
		toolSet = "(server default)"
	}
	fmt.Fprintf(s.Out, "  Tool set: %s\n", toolSet)
	fmt.Fprintln(s.Out)
	fmt.Fprintln(s.Out, titleStyle.Render("Tips:"))
	fmt.Fprintln(s.Out, "  Each line starts a new activity")
	fmt.Fprintln(s.Out, "  /goal <text> - set the goal of the next activities")
	fmt.Fprintln(s.Out, "  /quit        - exit")
	s.separator()
	fmt.Fprintln(s.Out)
}

func (s *Session) onEvent(ev *entity.ActivityEvent) {
	if s.Quiet {
		return
	}
	switch ev.Type {
	case entity.EventIteration:
		if d := ev.Decision; d != nil {
			line := fmt.Sprintf("[%d/%d] %s", d.IterationCount, d.MaxIterations, d.ActionType)
			if d.Reasoning != "" {
				line += ": " + d.Reasoning
			}
			fmt.Fprintln(s.Out, dimStyle.Render(line))
		}
	case entity.EventToolResult:
		if r := ev.ToolResult; r != nil {
			if r.Success {
				out, _ := json.MarshalToString(r.Result)
				fmt.Fprintln(s.Out, dimStyle.Render(fmt.Sprintf("  %s -> %s", r.ToolName, out)))
			} else {
				fmt.Fprintln(s.Out, errorStyle.Render(fmt.Sprintf("  %s failed: %s", r.ToolName, r.Error)))
			}
		}
	}
}

func (s *Session) printResult(result *entity.ActivityResult) {
	fmt.Fprintln(s.Out, agentStyle.Render("echoloop"))
	answer := result.FinalResponse
	if s.Markdown {
		answer = renderMarkdown(answer, termWidth(s.Out)-4)
	}
	fmt.Fprintln(s.Out, answer)
	fmt.Fprintln(s.Out, statusStyle.Render(fmt.Sprintf("%s after %d iterations, %d tool calls, %.2fs",
		result.Status, result.TotalIterations, result.TotalToolCalls, result.ExecutionTime)))
}

func (s *Session) ask(ctx context.Context, query string) error {
	req := s.Template
	req.UserQuery = query
	result, err := s.Client.RunStream(ctx, &req, s.onEvent)
	if err != nil {
		return err
	}
	s.printResult(result)
	return nil
}

// RunOnce runs a single activity and prints its events and result.
func (s *Session) RunOnce(ctx context.Context, query string) error {
	return s.ask(ctx, query)
}

// RunInteractive reads one query per line until EOF or /quit. Output goes
// straight to the terminal so that it stays selectable.
func (s *Session) RunInteractive(ctx context.Context) error {
	s.printWelcome()

	scanner := bufio.NewScanner(s.In)
	prompt := titleStyle.Render("> ")
	for {
		fmt.Fprint(s.Out, prompt)
		if !scanner.Scan() {
			fmt.Fprintf(s.Out, "\n%s\n", dimStyle.Render("Goodbye!"))
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
			continue
		case input == "/quit" || input == "/exit":
			fmt.Fprintln(s.Out, dimStyle.Render("Goodbye!"))
			return nil
		case strings.HasPrefix(input, "/goal"):
			s.Template.Goal = strings.TrimSpace(strings.TrimPrefix(input, "/goal"))
			fmt.Fprintln(s.Out, dimStyle.Render(fmt.Sprintf("Goal set to %q.", s.Template.Goal)))
			continue
		}

		s.separator()
		fmt.Fprintln(s.Out, userStyle.Render(input))
		if err := s.ask(ctx, input); err != nil {
			fmt.Fprintln(s.Out, errorStyle.Render("Error: "+err.Error()))
		}
		fmt.Fprintln(s.Out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
