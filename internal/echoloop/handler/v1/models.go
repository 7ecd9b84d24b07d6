package v1

import (
	"github.com/gin-gonic/gin"
	llmService "github.com/kiosk404/echoloop/internal/echoloop/service/llm/domain/service"
	"github.com/kiosk404/echoloop/internal/pkg/core"
	"github.com/kiosk404/echoloop/pkg/errorx"
)

// ModelObject is one entry of GET /v1/models.
type ModelObject struct {
	ID            string `json:"id"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	Name          string `json:"name,omitempty"`
	IsDefault     bool   `json:"is_default"`
	ContextWindow int    `json:"context_window,omitempty"`
}

// ModelHandler lists the models the llm oracle can be pointed at.
type ModelHandler struct {
	manager llmService.ModelManager
}

func NewModelHandler(manager llmService.ModelManager) *ModelHandler {
	return &ModelHandler{manager: manager}
}

// List handles GET /v1/models.
func (h *ModelHandler) List(c *gin.Context) {
	models, err := h.manager.ListModels(c.Request.Context())
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrModelList, "list models"), nil)
		return
	}
	data := make([]ModelObject, 0, len(models))
	for _, m := range models {
		data = append(data, ModelObject{
			ID:            m.Ref().String(),
			Provider:      m.ProviderID,
			Model:         m.ModelID,
			Name:          m.Name,
			IsDefault:     m.IsDefault,
			ContextWindow: m.ContextWindow,
		})
	}
	core.WriteResponse(c, nil, gin.H{"data": data})
}
