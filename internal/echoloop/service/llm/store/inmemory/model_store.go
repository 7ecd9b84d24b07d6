package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/repo"
	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/pkg/errno"
)

// Compile-time interface check
var _ repo.ModelRepository = (*ModelStore)(nil)

// ModelStore is an in-memory implementation of ModelRepository.
type ModelStore struct {
	mu         sync.RWMutex
	models     map[string]*entity.ModelInstance // "provider/model" -> instance
	defaultRef string
	nextID     int64
}

// NewModelStore creates a new in-memory model store.
func NewModelStore() *ModelStore {
	return &ModelStore{
		models: make(map[string]*entity.ModelInstance),
	}
}

func (m *ModelStore) Save(_ context.Context, instance *entity.ModelInstance) error {
	if instance == nil || instance.ModelID == "" || instance.ProviderID == "" {
		return fmt.Errorf("%w: model needs a provider and a model id", errno.ErrInvalidModelRef)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := instance.Ref().String()
	if existing, ok := m.models[key]; ok && instance.ID == 0 {
		instance.ID = existing.ID
	}
	if instance.ID == 0 {
		m.nextID++
		instance.ID = m.nextID
	}
	m.models[key] = instance
	if instance.IsDefault {
		m.defaultRef = key
	}
	return nil
}

func (m *ModelStore) FindByRef(_ context.Context, ref entity.ModelRef) (*entity.ModelInstance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	instance, ok := m.models[ref.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errno.ErrModelNotFound, ref)
	}
	return instance, nil
}

func (m *ModelStore) FindDefault(_ context.Context) (*entity.ModelInstance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	instance, ok := m.models[m.defaultRef]
	if m.defaultRef == "" || !ok {
		return nil, errno.ErrNoDefaultModel
	}
	return instance, nil
}

func (m *ModelStore) FindAll(_ context.Context) ([]*entity.ModelInstance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*entity.ModelInstance, 0, len(m.models))
	for _, instance := range m.models {
		result = append(result, instance)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Ref().String() < result[j].Ref().String()
	})
	return result, nil
}

func (m *ModelStore) SetDefault(_ context.Context, ref entity.ModelRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	instance, ok := m.models[ref.String()]
	if !ok {
		return fmt.Errorf("%w: %s", errno.ErrModelNotFound, ref)
	}
	if prev, ok := m.models[m.defaultRef]; ok {
		prev.IsDefault = false
	}
	instance.IsDefault = true
	m.defaultRef = ref.String()
	return nil
}
