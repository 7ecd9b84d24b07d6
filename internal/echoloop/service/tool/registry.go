package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/pkg/logger"
	"github.com/kiosk404/echoloop/pkg/utils/json"
)

// Registry maps unique tool names to tools. It is append-only within one
// tool set load: Clear must be called before loading a different set.
//
// Registries are meant to be created per activity or per tool-set load and
// passed explicitly, never shared as process-wide state.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register adds t, failing when the name is already taken. t must come
// from New: a Tool without a compiled schema or handler is rejected.
func (r *Registry) Register(t *Tool) error {
	if t == nil || t.Name == "" {
		return ErrInvalidTool
	}
	if t.schema == nil || t.handler == nil {
		return fmt.Errorf("%w: tool %q was not built with New", ErrInvalidTool, t.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[t.Name]; ok {
		return &alreadyRegisteredError{name: t.Name}
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// MustRegister is Register that panics on conflict.
func (r *Registry) MustRegister(t *Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Clear removes every tool.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = make(map[string]*Tool)
	r.order = nil
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// List returns the registered tools sorted by name.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

type toolDescription struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Descriptions serializes the registered tools as a JSON array of
// {name, description} in registration order.
func (r *Registry) Descriptions() string {
	r.mu.RLock()
	descs := make([]toolDescription, 0, len(r.order))
	for _, name := range r.order {
		descs = append(descs, toolDescription{Name: name, Description: r.tools[name].Description})
	}
	r.mu.RUnlock()

	data, err := json.Marshal(descs)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Execute runs one call. It never panics or returns an error: unknown tools,
// invalid arguments and failing or panicking handlers all become a failed result.
func (r *Registry) Execute(ctx context.Context, call entity.ToolCall) (result entity.ToolExecutionResult) {
	start := time.Now()
	result = entity.ToolExecutionResult{
		ToolName:   call.ToolName,
		Parameters: copyParams(call.Arguments),
	}
	defer func() {
		result.ExecutionTime = time.Since(start).Seconds()
	}()

	t, ok := r.Get(call.ToolName)
	if !ok {
		result.Error = fmt.Sprintf("Unknown tool: %s", call.ToolName)
		result.ErrorKind = entity.ErrorKindUnknownTool
		logger.Warn("[ToolRegistry] unknown tool %q requested", call.ToolName)
		return result
	}

	var args Args
	err := recovered(func() (err error) {
		args, err = t.Prepare(call.Arguments)
		return err
	})
	if err != nil {
		result.Error = err.Error()
		result.ErrorKind = entity.ErrorKindValidation
		logger.Warn("[ToolRegistry] tool %q rejected arguments: %v", call.ToolName, err)
		return result
	}

	var out interface{}
	err = recovered(func() (err error) {
		out, err = t.handler(ctx, args)
		return err
	})
	if err != nil {
		result.Error = err.Error()
		result.ErrorKind = entity.ErrorKindExecution
		if IsValidationError(err) {
			result.ErrorKind = entity.ErrorKindValidation
		}
		logger.Warn("[ToolRegistry] tool %q failed: %v", call.ToolName, err)
		return result
	}

	result.Success = true
	result.Result = out
	logger.Debug("[ToolRegistry] tool %q succeeded in %s", call.ToolName, time.Since(start))
	return result
}

// ExecuteAll runs calls strictly in order, one result per call.
func (r *Registry) ExecuteAll(ctx context.Context, calls []entity.ToolCall) []entity.ToolExecutionResult {
	results := make([]entity.ToolExecutionResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, r.Execute(ctx, call))
	}
	return results
}

// recovered runs fn and turns a panic into its error.
func recovered(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok {
				err = e
				return
			}
			err = errors.New(fmt.Sprint(rec))
		}
	}()
	return fn()
}

func copyParams(args map[string]interface{}) map[string]interface{} {
	cp := make(map[string]interface{}, len(args))
	for k, v := range args {
		cp[k] = v
	}
	return cp
}
