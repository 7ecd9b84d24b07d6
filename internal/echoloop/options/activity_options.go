package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// ActivityOptions bounds and wires every activity run.
type ActivityOptions struct {
	MaxIterations  int           `json:"max-iterations" mapstructure:"max-iterations"`
	Timeout        time.Duration `json:"timeout" mapstructure:"timeout"`
	Oracle         string        `json:"oracle" mapstructure:"oracle"`
	Model          string        `json:"model" mapstructure:"model"`
	Summarizer     string        `json:"summarizer" mapstructure:"summarizer"`
	DefaultToolSet string        `json:"default-tool-set" mapstructure:"default-tool-set"`

	// Temperature of the llm oracle. Negative keeps the provider default.
	Temperature float32 `json:"temperature" mapstructure:"temperature"`
	// JSONOutput switches the llm oracle's model to JSON object replies.
	JSONOutput bool `json:"json-output" mapstructure:"json-output"`
}

func NewActivityOptions() *ActivityOptions {
	return &ActivityOptions{
		MaxIterations:  5,
		Timeout:        30 * time.Second,
		Oracle:         "llm",
		Summarizer:     "heuristic",
		DefaultToolSet: "treasure_hunt",
		Temperature:    -1,
	}
}

func (o *ActivityOptions) Validate() []error {
	var errs []error
	if o.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("--activity.max-iterations must be at least 1, got %d", o.MaxIterations))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("--activity.timeout must be positive, got %s", o.Timeout))
	}
	if o.Oracle != "llm" && o.Oracle != "scripted" {
		errs = append(errs, fmt.Errorf("--activity.oracle %q must be llm or scripted", o.Oracle))
	}
	if o.Temperature > 2 {
		errs = append(errs, fmt.Errorf("--activity.temperature must be at most 2, got %g", o.Temperature))
	}
	if o.Summarizer != "heuristic" && o.Summarizer != "llm" {
		errs = append(errs, fmt.Errorf("--activity.summarizer %q must be heuristic or llm", o.Summarizer))
	}
	return errs
}

func (o *ActivityOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.MaxIterations, "activity.max-iterations", o.MaxIterations, "Maximum oracle iterations per activity.")
	fs.DurationVar(&o.Timeout, "activity.timeout", o.Timeout, "Wall-clock budget of one activity.")
	fs.StringVar(&o.Oracle, "activity.oracle", o.Oracle, "Decision oracle: llm or scripted.")
	fs.StringVar(&o.Model, "activity.model", o.Model, "Model reference (provider/model) of the llm oracle. Empty uses the default model.")
	fs.StringVar(&o.Summarizer, "activity.summarizer", o.Summarizer, "History summarizer: heuristic or llm.")
	fs.StringVar(&o.DefaultToolSet, "activity.default-tool-set", o.DefaultToolSet, "Tool set loaded when a request names none.")
	fs.Float32Var(&o.Temperature, "activity.temperature", o.Temperature, "Sampling temperature of the llm oracle. Negative keeps the provider default.")
	fs.BoolVar(&o.JSONOutput, "activity.json-output", o.JSONOutput, "Ask the llm oracle's model for JSON object replies where supported.")
}

// HistoryOptions configures conversation history compaction.
type HistoryOptions struct {
	MaxLength              int `json:"max-length" mapstructure:"max-length"`
	AutoSummarizeThreshold int `json:"auto-summarize-threshold" mapstructure:"auto-summarize-threshold"`
}

func NewHistoryOptions() *HistoryOptions {
	return &HistoryOptions{
		MaxLength:              10,
		AutoSummarizeThreshold: 20,
	}
}

func (o *HistoryOptions) Validate() []error {
	var errs []error
	if o.MaxLength < 1 {
		errs = append(errs, fmt.Errorf("--history.max-length must be at least 1, got %d", o.MaxLength))
	}
	if o.AutoSummarizeThreshold < 1 {
		errs = append(errs, fmt.Errorf("--history.auto-summarize-threshold must be at least 1, got %d", o.AutoSummarizeThreshold))
	}
	return errs
}

func (o *HistoryOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.MaxLength, "history.max-length", o.MaxLength, "Entries kept verbatim after a summary.")
	fs.IntVar(&o.AutoSummarizeThreshold, "history.auto-summarize-threshold", o.AutoSummarizeThreshold, "History length that triggers summarization.")
}
