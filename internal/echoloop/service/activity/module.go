package activity

import (
	"context"
	"fmt"
	"time"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/repo"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/service"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/service/oracle"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/service/runtime"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/pkg"
	boltdbStore "github.com/kiosk404/echoloop/internal/echoloop/service/activity/store/boltdb"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/store/inmemory"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm"
	llmEntity "github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/mcp"
	"github.com/kiosk404/echoloop/internal/echoloop/service/tool"
	"github.com/kiosk404/echoloop/internal/echoloop/service/tool/builtin"
	"github.com/kiosk404/echoloop/pkg/logger"
)

const (
	OracleTypeLLM      = "llm"
	OracleTypeScripted = "scripted"

	SummarizerHeuristic = "heuristic"
	SummarizerLLM       = "llm"

	StoreTypeInMemory = "inmemory"
	StoreTypeBoltDB   = "boltdb"
)

// Config holds the configuration for the Activity module.
// Config → Complete() → New(ctx, deps).
type Config struct {
	// MaxIterations bounds the oracle rounds of one activity (default: 5).
	MaxIterations int `json:"max_iterations,omitempty"`

	// Timeout is the wall-clock budget of one activity (default: 30s).
	Timeout time.Duration `json:"timeout,omitempty"`

	// MaxHistoryLength and AutoSummarizeThreshold drive history compaction
	// (defaults: 10 and 20).
	MaxHistoryLength       int `json:"max_history_length,omitempty"`
	AutoSummarizeThreshold int `json:"auto_summarize_threshold,omitempty"`

	// OracleType is "llm" or "scripted". Default: "llm".
	OracleType string `json:"oracle_type,omitempty"`

	// Model is the "provider/model" reference used by the llm oracle.
	// Empty uses the default model of the LLM module.
	Model string `json:"model,omitempty"`

	// OracleParams tune the llm oracle's model. Nil keeps the cached,
	// provider-default model.
	OracleParams *llmEntity.LLMParams `json:"oracle_params,omitempty"`

	// Summarizer is "heuristic" or "llm". Default: "heuristic".
	Summarizer string `json:"summarizer,omitempty"`

	// DefaultToolSet is loaded when a request names none.
	// Default: "treasure_hunt".
	DefaultToolSet string `json:"default_tool_set,omitempty"`

	// StoreType is "inmemory" or "boltdb". Default: "inmemory".
	StoreType string `json:"store_type,omitempty"`

	// BoltDBPath is used when StoreType is "boltdb". Default: "data/echoloop.db".
	BoltDBPath string `json:"boltdb_path,omitempty"`
}

// CompletedConfig is the validated and completed configuration.
type CompletedConfig struct {
	*Config
}

// Complete fills defaults.
func (c *Config) Complete() CompletedConfig {
	if c.MaxIterations <= 0 {
		c.MaxIterations = runtime.DefaultMaxIterations
	}
	if c.Timeout <= 0 {
		c.Timeout = runtime.DefaultTimeout
	}
	if c.MaxHistoryLength <= 0 {
		c.MaxHistoryLength = runtime.DefaultMaxHistoryLength
	}
	if c.AutoSummarizeThreshold <= 0 {
		c.AutoSummarizeThreshold = runtime.DefaultAutoSummarizeThreshold
	}
	if c.OracleType == "" {
		c.OracleType = OracleTypeLLM
	}
	if c.Summarizer == "" {
		c.Summarizer = SummarizerHeuristic
	}
	if c.DefaultToolSet == "" {
		c.DefaultToolSet = builtin.TreasureHunt
	}
	if c.StoreType == "" {
		c.StoreType = StoreTypeInMemory
	}
	if c.BoltDBPath == "" {
		c.BoltDBPath = "data/echoloop.db"
	}
	return CompletedConfig{c}
}

// Limits returns the service limits described by the config.
func (c CompletedConfig) Limits() service.Limits {
	return service.Limits{
		MaxIterations:          c.MaxIterations,
		Timeout:                c.Timeout,
		MaxHistoryLength:       c.MaxHistoryLength,
		AutoSummarizeThreshold: c.AutoSummarizeThreshold,
	}
}

// Dependencies holds the external modules required by the Activity module.
type Dependencies struct {
	// LLM is required by the llm oracle and the llm summarizer.
	LLM *llm.Module
	// MCP contributes one tool set per connected server. May be nil.
	MCP mcp.Manager
}

// Module is the top-level Activity module.
type Module struct {
	Service service.ActivityService
	Catalog *tool.ToolSetRegistry
	boltDB  *boltdbStore.DB // nil when using inmemory store
}

// Close releases the BoltDB handle, if any.
func (m *Module) Close() error {
	if m.boltDB != nil {
		return m.boltDB.Close()
	}
	return nil
}

// New creates the Activity module from a completed config.
func (c CompletedConfig) New(ctx context.Context, deps Dependencies) (*Module, error) {
	logger.InfoX(pkg.ModuleName, "[Activity] creating Activity module...")

	oracles, err := c.oracleFactory(deps)
	if err != nil {
		return nil, err
	}
	summarizer, err := c.summarizer(ctx, deps)
	if err != nil {
		return nil, err
	}

	catalog := builtin.NewInTreeCatalog()
	if deps.MCP != nil {
		if _, err := mcp.RegisterToolSets(ctx, deps.MCP, catalog); err != nil {
			return nil, fmt.Errorf("failed to register MCP tool sets: %w", err)
		}
	}
	if _, ok := catalog.Get(c.DefaultToolSet); !ok {
		return nil, fmt.Errorf("%w: default tool set %s", tool.ErrToolSetNotFound, c.DefaultToolSet)
	}

	var (
		activityStore repo.ActivityRepository
		boltDB        *boltdbStore.DB
	)
	switch c.StoreType {
	case StoreTypeBoltDB:
		boltDB, err = boltdbStore.Open(c.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open boltdb at %s: %w", c.BoltDBPath, err)
		}
		activityStore = boltdbStore.NewActivityStore(boltDB)
		logger.InfoX(pkg.ModuleName, "[Activity] using BoltDB store at %s", c.BoltDBPath)
	case StoreTypeInMemory:
		activityStore = inmemory.NewActivityStore()
		logger.InfoX(pkg.ModuleName, "[Activity] using in-memory store")
	default:
		return nil, fmt.Errorf("unknown store type %q", c.StoreType)
	}

	svc := service.NewActivityService(service.ServiceConfig{
		Repo:           activityStore,
		Catalog:        catalog,
		Oracles:        oracles,
		Summarizer:     summarizer,
		DefaultToolSet: c.DefaultToolSet,
		Limits:         c.Limits(),
	})

	logger.InfoX(pkg.ModuleName, "[Activity] Activity module initialized (oracle=%s, summarizer=%s, store=%s, tool_sets=%d, max_iterations=%d, timeout=%s)",
		c.OracleType, c.Summarizer, c.StoreType, len(catalog.List()), c.MaxIterations, c.Timeout)

	return &Module{
		Service: svc,
		Catalog: catalog,
		boltDB:  boltDB,
	}, nil
}

func (c CompletedConfig) oracleFactory(deps Dependencies) (service.OracleFactory, error) {
	switch c.OracleType {
	case OracleTypeScripted:
		return func(context.Context, *tool.Registry) (oracle.Oracle, error) {
			return oracle.NewScripted(oracle.DemoScript()...), nil
		}, nil
	case OracleTypeLLM:
		if deps.LLM == nil {
			return nil, fmt.Errorf("LLM module dependency is required for the %s oracle", OracleTypeLLM)
		}
		// The model is resolved per activity so the module starts without one.
		return func(ctx context.Context, tools *tool.Registry) (oracle.Oracle, error) {
			m, err := c.chatModel(ctx, deps.LLM, c.OracleParams)
			if err != nil {
				return nil, err
			}
			return oracle.NewLLMOracle(m, oracle.WithToolInfos(tool.ToolInfos(tools))), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown oracle type %q", c.OracleType)
	}
}

func (c CompletedConfig) summarizer(ctx context.Context, deps Dependencies) (runtime.Summarizer, error) {
	switch c.Summarizer {
	case SummarizerHeuristic:
		return runtime.HeuristicSummarizer{}, nil
	case SummarizerLLM:
		if deps.LLM == nil {
			return nil, fmt.Errorf("LLM module dependency is required for the %s summarizer", SummarizerLLM)
		}
		m, err := c.chatModel(ctx, deps.LLM, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve summarizer model: %w", err)
		}
		return runtime.NewChatModelSummarizer(m, 0), nil
	default:
		return nil, fmt.Errorf("unknown summarizer %q", c.Summarizer)
	}
}

// chatModel resolves c.Model, or the default model when it is empty. Tuned
// params get a freshly built model since the cache holds untuned ones.
func (c CompletedConfig) chatModel(ctx context.Context, mod *llm.Module, params *llmEntity.LLMParams) (einoModel.BaseChatModel, error) {
	if c.Model == "" && params.IsZero() {
		return mod.DefaultChatModel(ctx)
	}

	var ref llmEntity.ModelRef
	if c.Model == "" {
		def, err := mod.Manager.GetDefaultModel(ctx)
		if err != nil {
			return nil, err
		}
		ref = def.Ref()
	} else {
		var err error
		if ref, err = llmEntity.ParseModelRef(c.Model); err != nil {
			return nil, err
		}
	}

	if params.IsZero() {
		return mod.ChatModel(ctx, ref)
	}
	return mod.BuildChatModel(ctx, ref, params)
}
