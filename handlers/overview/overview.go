package overview

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/novafs/lms-api/handlers"
	"github.com/novafs/lms-api/services"
	"github.com/novafs/lms-api/utils/response"
)

// Service builds the manager dashboard
type Service interface {
	GetOverview(ctx context.Context, managerID uint) (*services.Overview, error)
}

type OverviewHandler struct {
	service Service
}

func NewOverviewHandler(service Service) *OverviewHandler {
	return &OverviewHandler{service: service}
}

// GetOverview handles GET /overviews
func (h *OverviewHandler) GetOverview(c *fiber.Ctx) error {
	managerID, ok := handlers.ManagerID(c)
	if !ok {
		return response.Forbidden(c, "")
	}

	overview, err := h.service.GetOverview(c.UserContext(), managerID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Get overview success", overview)
}
