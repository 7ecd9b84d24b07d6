package repo

import (
	"context"

	"github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/entity"
)

// ModelRepository stores model instances.
type ModelRepository interface {
	// Save persists a model instance, assigning an ID when it has none.
	Save(ctx context.Context, instance *entity.ModelInstance) error
	FindByRef(ctx context.Context, ref entity.ModelRef) (*entity.ModelInstance, error)
	FindDefault(ctx context.Context) (*entity.ModelInstance, error)
	// FindAll returns every instance ordered by provider then model.
	FindAll(ctx context.Context) ([]*entity.ModelInstance, error)
	SetDefault(ctx context.Context, ref entity.ModelRef) error
}

// ProviderRepository stores model providers.
type ProviderRepository interface {
	Save(ctx context.Context, provider *entity.ModelProvider) error
	FindByID(ctx context.Context, id string) (*entity.ModelProvider, error)
	// FindAll returns every provider ordered by ID.
	FindAll(ctx context.Context) ([]*entity.ModelProvider, error)
}
