package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/repo"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/pkg"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/pkg/errno"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/helper"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/spi"
	"github.com/kiosk404/echoloop/internal/pkg/options"
	"github.com/kiosk404/echoloop/pkg/logger"
	"golang.org/x/sync/singleflight"
)

var _ ModelManager = (*modelManagerImpl)(nil)

type modelManagerImpl struct {
	opts         *options.ModelOptions
	modelRepo    repo.ModelRepository
	providerRepo repo.ProviderRepository
	registry     *provider.Registry

	// builds collapses concurrent cache misses of one model into one build.
	builds singleflight.Group

	mu      sync.RWMutex
	models  map[string]einoModel.BaseChatModel // "provider/model"
	plugins map[string]spi.ProviderPlugin      // provider ID
}

func NewModelManager(
	opts *options.ModelOptions,
	modelRepo repo.ModelRepository,
	providerRepo repo.ProviderRepository,
	registry *provider.Registry,
) ModelManager {
	return &modelManagerImpl{
		opts:         opts,
		modelRepo:    modelRepo,
		providerRepo: providerRepo,
		registry:     registry,
		models:       map[string]einoModel.BaseChatModel{},
		plugins:      map[string]spi.ProviderPlugin{},
	}
}

func (m *modelManagerImpl) RegisterProvider(ctx context.Context, p *entity.ModelProvider) error {
	if p == nil || p.ID == "" {
		return errors.New("provider ID is required")
	}
	logger.InfoX(pkg.ModuleName, "[LLM] provider %s registered (class=%s, base_url=%s)", p.ID, p.ModelClass, p.BaseURL)
	return m.providerRepo.Save(ctx, p)
}

func (m *modelManagerImpl) GetProvider(ctx context.Context, providerID string) (*entity.ModelProvider, error) {
	return m.providerRepo.FindByID(ctx, providerID)
}

func (m *modelManagerImpl) ListProviders(ctx context.Context) ([]*entity.ModelProvider, error) {
	return m.providerRepo.FindAll(ctx)
}

// RegisterModel replaces a model of the same ref and drops its cached chat model.
func (m *modelManagerImpl) RegisterModel(ctx context.Context, instance *entity.ModelInstance) error {
	if instance == nil || instance.ModelID == "" || instance.ProviderID == "" {
		return fmt.Errorf("%w: model needs a provider and a model id", errno.ErrInvalidModelRef)
	}
	if _, err := m.providerRepo.FindByID(ctx, instance.ProviderID); err != nil {
		return fmt.Errorf("model %s: %w", instance.Ref(), err)
	}
	if err := m.modelRepo.Save(ctx, instance); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.models, instance.Ref().String())
	m.mu.Unlock()
	logger.DebugX(pkg.ModuleName, "[LLM] model %s registered (id=%d)", instance.Ref(), instance.ID)
	return nil
}

func (m *modelManagerImpl) GetModel(ctx context.Context, ref entity.ModelRef) (*entity.ModelInstance, error) {
	return m.modelRepo.FindByRef(ctx, ref)
}

func (m *modelManagerImpl) ListModels(ctx context.Context) ([]*entity.ModelInstance, error) {
	return m.modelRepo.FindAll(ctx)
}

func (m *modelManagerImpl) GetDefaultModel(ctx context.Context) (*entity.ModelInstance, error) {
	return m.modelRepo.FindDefault(ctx)
}

func (m *modelManagerImpl) SetDefaultModel(ctx context.Context, ref entity.ModelRef) error {
	return m.modelRepo.SetDefault(ctx, ref)
}

func (m *modelManagerImpl) GetChatModel(ctx context.Context, ref entity.ModelRef) (einoModel.BaseChatModel, error) {
	key := ref.String()
	m.mu.RLock()
	cm, ok := m.models[key]
	m.mu.RUnlock()
	if ok {
		return cm, nil
	}

	// A caller may miss the cache just as an earlier flight stores into it.
	v, err, _ := m.builds.Do(key, func() (interface{}, error) {
		m.mu.RLock()
		cm, ok := m.models[key]
		m.mu.RUnlock()
		if ok {
			return cm, nil
		}
		built, err := m.BuildChatModel(ctx, ref, nil)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.models[key] = built
		m.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(einoModel.BaseChatModel), nil
}

func (m *modelManagerImpl) GetDefaultChatModel(ctx context.Context) (einoModel.BaseChatModel, error) {
	def, err := m.modelRepo.FindDefault(ctx)
	if err != nil {
		return nil, err
	}
	return m.GetChatModel(ctx, def.Ref())
}

func (m *modelManagerImpl) BuildChatModel(ctx context.Context, ref entity.ModelRef, params *entity.LLMParams) (einoModel.BaseChatModel, error) {
	instance, err := m.modelRepo.FindByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	if instance.Status == entity.ModelStatus_Disabled {
		return nil, fmt.Errorf("model %s is disabled", ref)
	}
	prov, err := m.providerRepo.FindByID(ctx, ref.ProviderID)
	if err != nil {
		return nil, err
	}

	builder, ok := m.plugin(ref.ProviderID).(spi.ChatModelPlugin)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errno.ErrPluginNotChatModel, ref.ProviderID)
	}
	cm, err := builder.BuildChatModel(ctx, instance, prov, params)
	if err != nil {
		return nil, fmt.Errorf("build chat model for %s: %w", ref, err)
	}
	return cm, nil
}

// plugin returns the plugin a provider was registered with, creating one
// from the registry for providers registered by hand.
func (m *modelManagerImpl) plugin(providerID string) spi.ProviderPlugin {
	m.mu.RLock()
	p, ok := m.plugins[providerID]
	m.mu.RUnlock()
	if ok {
		return p
	}

	p, _ = m.registry.Plugin(providerID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.plugins[providerID]; ok {
		return prev
	}
	m.plugins[providerID] = p
	return p
}

// Initialize registers, in order: the in-tree providers whose API key is
// set (merge mode only), then the configured providers, which win over
// in-tree ones of the same name. The default model is the configured one,
// else the first model registered.
func (m *modelManagerImpl) Initialize(ctx context.Context) error {
	if m.opts == nil {
		logger.InfoX(pkg.ModuleName, "[LLM] no model options, nothing to register")
		return nil
	}
	logger.InfoX(pkg.ModuleName, "[LLM] initializing (mode=%s, configured=%d, plugins=%d)",
		m.opts.Mode, len(m.opts.Providers), m.registry.Len())

	if m.opts.Mode != options.ModelModeReplace {
		m.discover(ctx)
	}
	for _, id := range slices.Sorted(maps.Keys(m.opts.Providers)) {
		if err := m.registerConfigured(ctx, id, m.opts.Providers[id]); err != nil {
			logger.WarnX(pkg.ModuleName, "[LLM] provider %q skipped: %v", id, err)
		}
	}

	if err := m.pickDefault(ctx); err != nil {
		return err
	}

	models, _ := m.modelRepo.FindAll(ctx)
	providers, _ := m.providerRepo.FindAll(ctx)
	logger.InfoX(pkg.ModuleName, "[LLM] ready: %d providers, %d models", len(providers), len(models))
	return nil
}

func (m *modelManagerImpl) pickDefault(ctx context.Context) error {
	if m.opts.DefaultProvider != "" && m.opts.DefaultModel != "" {
		ref := entity.ModelRef{ProviderID: m.opts.DefaultProvider, ModelID: m.opts.DefaultModel}
		if err := m.modelRepo.SetDefault(ctx, ref); err != nil {
			return fmt.Errorf("configured default model: %w", err)
		}
		logger.InfoX(pkg.ModuleName, "[LLM] default model: %s", ref)
		return nil
	}
	if _, err := m.modelRepo.FindDefault(ctx); err == nil {
		return nil
	}
	models, _ := m.modelRepo.FindAll(ctx)
	if len(models) == 0 {
		return nil
	}
	ref := models[0].Ref()
	logger.InfoX(pkg.ModuleName, "[LLM] no default model configured, using %s", ref)
	return m.modelRepo.SetDefault(ctx, ref)
}

// discover registers the in-tree providers whose API key resolves from the
// environment and that the configuration does not override.
func (m *modelManagerImpl) discover(ctx context.Context) {
	for _, name := range m.registry.Names() {
		if _, overridden := m.opts.Providers[name]; overridden {
			continue
		}
		plugin, _ := m.registry.Plugin(name)
		cfg := plugin.DefaultConfig()
		if cfg.APIKey = helper.ResolveEnvValue(cfg.APIKey); cfg.APIKey == "" {
			continue
		}
		logger.InfoX(pkg.ModuleName, "[LLM] discovered provider %s from the environment", name)
		if err := m.registerPlugin(ctx, plugin, cfg); err != nil {
			logger.WarnX(pkg.ModuleName, "[LLM] provider %q skipped: %v", name, err)
		}
	}
}

func (m *modelManagerImpl) registerConfigured(ctx context.Context, id string, cfg *options.ProviderConfig) error {
	if cfg == nil {
		return errors.New("no configuration")
	}
	plugin, _ := m.registry.Plugin(id)
	return m.registerPlugin(ctx, plugin, cfg)
}

func (m *modelManagerImpl) registerPlugin(ctx context.Context, plugin spi.ProviderPlugin, cfg *options.ProviderConfig) error {
	prov, err := plugin.BuildProvider(cfg)
	if err != nil {
		return fmt.Errorf("build provider %q: %w", plugin.Name(), err)
	}
	if err := m.RegisterProvider(ctx, prov); err != nil {
		return err
	}
	m.mu.Lock()
	m.plugins[prov.ID] = plugin
	m.mu.Unlock()

	models, err := plugin.BuildModels(prov, cfg)
	if err != nil {
		return fmt.Errorf("build models for %q: %w", plugin.Name(), err)
	}
	for _, instance := range models {
		if err := m.RegisterModel(ctx, instance); err != nil {
			logger.WarnX(pkg.ModuleName, "[LLM] model %s skipped: %v", instance.Ref(), err)
		}
	}
	return nil
}
