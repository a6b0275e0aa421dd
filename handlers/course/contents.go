package course

import (
	"github.com/gofiber/fiber/v2"
	"github.com/novafs/lms-api/handlers"
	"github.com/novafs/lms-api/services"
	"github.com/novafs/lms-api/utils/response"
)

// CreateContent handles POST /courses/contents
func (h *CourseHandler) CreateContent(c *fiber.Ctx) error {
	managerID, ok := handlers.ManagerID(c)
	if !ok {
		return response.Forbidden(c, "")
	}

	var req services.ContentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	content, err := h.service.CreateContent(c.UserContext(), managerID, req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Create Content success", content)
}

// UpdateContent handles PUT /courses/contents/:id
func (h *CourseHandler) UpdateContent(c *fiber.Ctx) error {
	managerID, ok := handlers.ManagerID(c)
	if !ok {
		return response.Forbidden(c, "")
	}

	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID")
	}

	var req services.ContentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	content, err := h.service.UpdateContent(c.UserContext(), managerID, id, req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Update Content success", content)
}

// DeleteContent handles DELETE /courses/contents/:id
func (h *CourseHandler) DeleteContent(c *fiber.Ctx) error {
	managerID, ok := handlers.ManagerID(c)
	if !ok {
		return response.Forbidden(c, "")
	}

	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID")
	}

	if err := h.service.DeleteContent(c.UserContext(), managerID, id); err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Delete content success", nil)
}

// GetContent handles GET /courses/contents/:id
func (h *CourseHandler) GetContent(c *fiber.Ctx) error {
	actor, ok := handlers.Actor(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid content ID")
	}

	content, err := h.service.GetContent(c.UserContext(), actor, id)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Get Detail Content success", content)
}
