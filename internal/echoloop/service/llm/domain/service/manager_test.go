package service

import (
	"context"
	"sync"
	"testing"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/pkg/errno"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/helper"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/provider/spi"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/store/inmemory"
	"github.com/kiosk404/echoloop/internal/pkg/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeKeyEnv = "ECHOLOOP_TEST_FAKE_KEY"

type fakeChatModel struct {
	ref    string
	params *entity.LLMParams
}

func (f *fakeChatModel) Generate(context.Context, []*schema.Message, ...einoModel.Option) (*schema.Message, error) {
	return schema.AssistantMessage(f.ref, nil), nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(f.ref, nil)}), nil
}

type fakePlugin struct {
	helper.BasePlugin
	builds int
}

func (p *fakePlugin) DefaultConfig() *options.ProviderConfig {
	return &options.ProviderConfig{
		BaseURL: "http://fake.local",
		APIKey:  "${" + fakeKeyEnv + "}",
		Models: []options.ModelDefinition{
			{ID: "small", MaxTokens: 100},
			{ID: "large", Name: "Large", Reasoning: true},
		},
	}
}

func (p *fakePlugin) BuildChatModel(_ context.Context, instance *entity.ModelInstance, _ *entity.ModelProvider, params *entity.LLMParams) (einoModel.BaseChatModel, error) {
	p.builds++
	return &fakeChatModel{ref: instance.Ref().String(), params: params}, nil
}

func newManager(t *testing.T, opts *options.ModelOptions) (ModelManager, *fakePlugin) {
	t.Helper()
	plugin := &fakePlugin{BasePlugin: helper.BasePlugin{PluginName: "fake"}}
	registry := provider.NewRegistry()
	registry.MustRegister("fake", func() spi.ProviderPlugin { return plugin })
	m := NewModelManager(opts, inmemory.NewModelStore(), inmemory.NewProviderStore(), registry)
	return m, plugin
}

func TestManager_DiscoversProvidersFromEnv(t *testing.T) {
	t.Setenv(fakeKeyEnv, "secret")
	m, plugin := newManager(t, options.NewModelOptions())
	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx))

	providers, err := m.ListProviders(ctx)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "secret", providers[0].APIKey)

	models, err := m.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "fake/large", models[0].Ref().String())
	assert.Equal(t, entity.ThinkingType_Enable, models[0].Connection.BaseConnInfo.ThinkingType)
	assert.Equal(t, []string{"text"}, models[1].InputTypes)

	def, err := m.GetDefaultModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fake/large", def.Ref().String())

	cm1, err := m.GetDefaultChatModel(ctx)
	require.NoError(t, err)
	cm2, err := m.GetChatModel(ctx, def.Ref())
	require.NoError(t, err)
	assert.Same(t, cm1, cm2)
	assert.Equal(t, 1, plugin.builds)

	temp := float32(0.1)
	built, err := m.BuildChatModel(ctx, def.Ref(), &entity.LLMParams{Temperature: &temp})
	require.NoError(t, err)
	assert.NotSame(t, cm1, built)
	assert.Equal(t, &temp, built.(*fakeChatModel).params.Temperature)
}

func TestManager_NoKeyNoProvider(t *testing.T) {
	t.Setenv(fakeKeyEnv, "")
	m, _ := newManager(t, options.NewModelOptions())
	require.NoError(t, m.Initialize(context.Background()))

	_, err := m.GetDefaultChatModel(context.Background())
	assert.ErrorIs(t, err, errno.ErrNoDefaultModel)
}

func TestManager_ReplaceModeUsesConfiguredProviders(t *testing.T) {
	t.Setenv(fakeKeyEnv, "secret")
	opts := options.NewModelOptions()
	opts.Mode = options.ModelModeReplace
	opts.DefaultProvider = "local"
	opts.DefaultModel = "llama3"
	opts.Providers["local"] = &options.ProviderConfig{
		BaseURL: "http://127.0.0.1:8000/v1",
		APIKey:  "plain-key",
		Models:  []options.ModelDefinition{{ID: "llama3"}},
	}

	m, _ := newManager(t, opts)
	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx))

	providers, err := m.ListProviders(ctx)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "local", providers[0].ID)
	assert.Equal(t, entity.ModelAPI_OpenAICompletions, providers[0].API)

	def, err := m.GetDefaultModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "llama3", def.Name)
	assert.Equal(t, "plain-key", def.Connection.BaseConnInfo.APIKey)
}

func TestManager_UserConfigOverridesPlugin(t *testing.T) {
	t.Setenv(fakeKeyEnv, "secret")
	opts := options.NewModelOptions()
	opts.Providers["fake"] = &options.ProviderConfig{Models: []options.ModelDefinition{{ID: "tuned"}}}

	m, plugin := newManager(t, opts)
	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx))

	models, err := m.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "fake/tuned", models[0].Ref().String())

	_, err = m.GetChatModel(ctx, models[0].Ref())
	require.NoError(t, err)
	assert.Equal(t, 1, plugin.builds, "the registry plugin serves the configured provider")
}

func TestManager_MissingConfiguredDefault(t *testing.T) {
	t.Setenv(fakeKeyEnv, "secret")
	opts := options.NewModelOptions()
	opts.DefaultProvider = "fake"
	opts.DefaultModel = "ghost"

	m, _ := newManager(t, opts)
	err := m.Initialize(context.Background())
	assert.ErrorIs(t, err, errno.ErrModelNotFound)
}

func TestManager_RegisterModelNeedsProvider(t *testing.T) {
	m, _ := newManager(t, nil)
	require.NoError(t, m.Initialize(context.Background()))

	err := m.RegisterModel(context.Background(), &entity.ModelInstance{ProviderID: "nope", ModelID: "x"})
	assert.ErrorIs(t, err, errno.ErrProviderNotFound)

	_, err = m.GetModel(context.Background(), entity.ModelRef{ProviderID: "nope", ModelID: "x"})
	assert.ErrorIs(t, err, errno.ErrModelNotFound)
}

func TestManager_ConcurrentGetChatModelBuildsOnce(t *testing.T) {
	t.Setenv(fakeKeyEnv, "secret")
	m, plugin := newManager(t, options.NewModelOptions())
	ctx := context.Background()
	require.NoError(t, m.Initialize(ctx))
	ref := entity.ModelRef{ProviderID: "fake", ModelID: "small"}

	var wg sync.WaitGroup
	got := make([]einoModel.BaseChatModel, 8)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cm, err := m.GetChatModel(ctx, ref)
			assert.NoError(t, err)
			got[i] = cm
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, plugin.builds)
	for _, cm := range got {
		assert.Same(t, got[0], cm)
	}
}
