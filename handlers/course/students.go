package course

import (
	"github.com/gofiber/fiber/v2"
	"github.com/novafs/lms-api/handlers"
	"github.com/novafs/lms-api/services"
	"github.com/novafs/lms-api/utils/response"
)

// GetCourseStudents handles GET /courses/students/:id
func (h *CourseHandler) GetCourseStudents(c *fiber.Ctx) error {
	managerID, ok := handlers.ManagerID(c)
	if !ok {
		return response.Forbidden(c, "")
	}

	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	roster, err := h.service.GetCourseStudents(c.UserContext(), managerID, id)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Get Student by Course Success", roster)
}

// AddStudent handles POST /courses/students/:id
func (h *CourseHandler) AddStudent(c *fiber.Ctx) error {
	managerID, ok := handlers.ManagerID(c)
	if !ok {
		return response.Forbidden(c, "")
	}

	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req services.EnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.service.AddStudent(c.UserContext(), managerID, id, req); err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Add student to course success", nil)
}

// RemoveStudent handles PUT /courses/students/:id
func (h *CourseHandler) RemoveStudent(c *fiber.Ctx) error {
	managerID, ok := handlers.ManagerID(c)
	if !ok {
		return response.Forbidden(c, "")
	}

	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req services.EnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.service.RemoveStudent(c.UserContext(), managerID, id, req); err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Delete student from course success", nil)
}
