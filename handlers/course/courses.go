package course

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/novafs/lms-api/handlers"
	"github.com/novafs/lms-api/model"
	"github.com/novafs/lms-api/services"
	"github.com/novafs/lms-api/services/media"
	"github.com/novafs/lms-api/utils/response"
)

// Service is the course management flow used by the handler
type Service interface {
	ListCourses(ctx context.Context, managerID uint) ([]services.CourseSummary, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCourse(ctx context.Context, actor services.Actor, courseID uint, preview bool) (*services.CourseDetail, error)
	CreateCourse(ctx context.Context, managerID uint, req services.CourseRequest, thumbnail *media.File) (*model.Course, error)
	UpdateCourse(ctx context.Context, managerID, courseID uint, req services.CourseRequest, thumbnail *media.File) (*model.Course, error)
	DeleteCourse(ctx context.Context, managerID, courseID uint) error

	CreateContent(ctx context.Context, managerID uint, req services.ContentRequest) (*model.CourseContent, error)
	UpdateContent(ctx context.Context, managerID, contentID uint, req services.ContentRequest) (*model.CourseContent, error)
	DeleteContent(ctx context.Context, managerID, contentID uint) error
	GetContent(ctx context.Context, actor services.Actor, contentID uint) (*model.CourseContent, error)

	GetCourseStudents(ctx context.Context, managerID, courseID uint) (*services.CourseRoster, error)
	AddStudent(ctx context.Context, managerID, courseID uint, req services.EnrollmentRequest) error
	RemoveStudent(ctx context.Context, managerID, courseID uint, req services.EnrollmentRequest) error
}

// CourseHandler handles course, category, content and enrollment requests
type CourseHandler struct {
	service Service
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(service Service) *CourseHandler {
	return &CourseHandler{service: service}
}

// ListCourses handles GET /courses
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	managerID, ok := handlers.ManagerID(c)
	if !ok {
		return response.Forbidden(c, "")
	}

	courses, err := h.service.ListCourses(c.UserContext(), managerID)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Get courses success", courses)
}

// ListCategories handles GET /categories
func (h *CourseHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Get Category success", categories)
}

// GetCourse handles GET /courses/:id?preview=true
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	actor, ok := handlers.Actor(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	course, err := h.service.GetCourse(c.UserContext(), actor, id, c.Query("preview") == "true")
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Get Course Detail success", course)
}

// CreateCourse handles POST /courses (multipart with a thumbnail file)
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	managerID, ok := handlers.ManagerID(c)
	if !ok {
		return response.Forbidden(c, "")
	}

	var req services.CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	thumbnail, closeFile, err := handlers.FormFile(c, "thumbnail")
	if err != nil {
		return response.BadRequest(c, "Invalid thumbnail upload")
	}
	defer closeFile()

	course, err := h.service.CreateCourse(c.UserContext(), managerID, req, thumbnail)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Create Course success", course)
}

// UpdateCourse handles PUT /courses/:id (thumbnail optional)
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	managerID, ok := handlers.ManagerID(c)
	if !ok {
		return response.Forbidden(c, "")
	}

	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	var req services.CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	thumbnail, closeFile, err := handlers.FormFile(c, "thumbnail")
	if err != nil {
		return response.BadRequest(c, "Invalid thumbnail upload")
	}
	defer closeFile()

	course, err := h.service.UpdateCourse(c.UserContext(), managerID, id, req, thumbnail)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Update Course success", course)
}

// DeleteCourse handles DELETE /courses/:id
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	managerID, ok := handlers.ManagerID(c)
	if !ok {
		return response.Forbidden(c, "")
	}

	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	if err := h.service.DeleteCourse(c.UserContext(), managerID, id); err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Delete Course success", nil)
}
