package inmemory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/repo"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/pkg/errno"
)

var _ repo.ProviderRepository = (*ProviderStore)(nil)

// ProviderStore keeps providers by ID. ids stays sorted so FindAll needs no
// sort per call.
type ProviderStore struct {
	mu   sync.RWMutex
	byID map[string]*entity.ModelProvider
	ids  []string
}

func NewProviderStore() *ProviderStore {
	return &ProviderStore{byID: map[string]*entity.ModelProvider{}}
}

func (p *ProviderStore) Save(_ context.Context, provider *entity.ModelProvider) error {
	if provider == nil || provider.ID == "" {
		return errors.New("provider ID is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byID[provider.ID]; !ok {
		i, _ := slices.BinarySearch(p.ids, provider.ID)
		p.ids = slices.Insert(p.ids, i, provider.ID)
	}
	p.byID[provider.ID] = provider
	return nil
}

func (p *ProviderStore) FindByID(_ context.Context, id string) (*entity.ModelProvider, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if provider, ok := p.byID[id]; ok {
		return provider, nil
	}
	return nil, fmt.Errorf("%w: %s", errno.ErrProviderNotFound, id)
}

func (p *ProviderStore) FindAll(context.Context) ([]*entity.ModelProvider, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*entity.ModelProvider, len(p.ids))
	for i, id := range p.ids {
		out[i] = p.byID[id]
	}
	return out, nil
}
