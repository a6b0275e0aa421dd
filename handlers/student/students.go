package student

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/novafs/lms-api/handlers"
	"github.com/novafs/lms-api/services"
	"github.com/novafs/lms-api/services/media"
	"github.com/novafs/lms-api/utils/middleware"
	"github.com/novafs/lms-api/utils/response"
)

// Service is the student management flow used by the handler
type Service interface {
	ListStudents(ctx context.Context, managerID uint) ([]services.StudentSummary, error)
	GetStudent(ctx context.Context, managerID, studentID uint) (*services.StudentDetail, error)
	CreateStudent(ctx context.Context, managerID uint, req services.CreateStudentRequest, avatar *media.File) (*services.StudentDetail, error)
	UpdateStudent(ctx context.Context, managerID, studentID uint, req services.UpdateStudentRequest, avatar *media.File) (*services.StudentDetail, error)
	DeleteStudent(ctx context.Context, managerID, studentID uint) error
	ListStudentCourses(ctx context.Context, studentID uint) ([]services.StudentCourse, error)
}

// StudentHandler handles student management requests
type StudentHandler struct {
	service Service
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(service Service) *StudentHandler {
	return &StudentHandler{service: service}
}

// ListStudents handles GET /students
func (h *StudentHandler) ListStudents(c *fiber.Ctx) error {
	managerID, ok := handlers.ManagerID(c)
	if !ok {
		return response.Forbidden(c, "")
	}

	students, err := h.service.ListStudents(c.UserContext(), managerID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Get students success", students)
}

// GetStudent handles GET /students/:id
func (h *StudentHandler) GetStudent(c *fiber.Ctx) error {
	managerID, ok := handlers.ManagerID(c)
	if !ok {
		return response.Forbidden(c, "")
	}

	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	student, err := h.service.GetStudent(c.UserContext(), managerID, id)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Get Detail Student success", student)
}

// CreateStudent handles POST /students (multipart with an avatar file)
func (h *StudentHandler) CreateStudent(c *fiber.Ctx) error {
	managerID, ok := handlers.ManagerID(c)
	if !ok {
		return response.Forbidden(c, "")
	}

	var req services.CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	avatar, closeFile, err := handlers.FormFile(c, "avatar")
	if err != nil {
		return response.BadRequest(c, "Invalid avatar upload")
	}
	defer closeFile()

	student, err := h.service.CreateStudent(c.UserContext(), managerID, req, avatar)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Create student success", student)
}

// UpdateStudent handles PUT /students/:id (password and avatar optional)
func (h *StudentHandler) UpdateStudent(c *fiber.Ctx) error {
	managerID, ok := handlers.ManagerID(c)
	if !ok {
		return response.Forbidden(c, "")
	}

	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	var req services.UpdateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	avatar, closeFile, err := handlers.FormFile(c, "avatar")
	if err != nil {
		return response.BadRequest(c, "Invalid avatar upload")
	}
	defer closeFile()

	student, err := h.service.UpdateStudent(c.UserContext(), managerID, id, req, avatar)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Update student success", student)
}

// DeleteStudent handles DELETE /students/:id
func (h *StudentHandler) DeleteStudent(c *fiber.Ctx) error {
	managerID, ok := handlers.ManagerID(c)
	if !ok {
		return response.Forbidden(c, "")
	}

	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	if err := h.service.DeleteStudent(c.UserContext(), managerID, id); err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Delete student success", nil)
}

// ListMyCourses handles GET /students-courses for the signed-in student
func (h *StudentHandler) ListMyCourses(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	courses, err := h.service.ListStudentCourses(c.UserContext(), userID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Get courses success", courses)
}
