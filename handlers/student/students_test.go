package student

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/novafs/lms-api/model"
	"github.com/novafs/lms-api/services"
	"github.com/novafs/lms-api/utils/apperr"
)

type fakeStudentService struct {
	Service

	studentID uint
	getErr    error
}

func (f *fakeStudentService) GetStudent(ctx context.Context, managerID, studentID uint) (*services.StudentDetail, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &services.StudentDetail{ID: studentID, Name: "Student One"}, nil
}

func (f *fakeStudentService) ListStudentCourses(ctx context.Context, studentID uint) ([]services.StudentCourse, error) {
	f.studentID = studentID
	return []services.StudentCourse{}, nil
}

func newTestApp(service Service, user *model.User) *fiber.App {
	h := NewStudentHandler(service)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", user.ID)
		c.Locals("user", user)
		return c.Next()
	})
	app.Get("/students/:id", h.GetStudent)
	app.Get("/students-courses", h.ListMyCourses)
	return app
}

func TestGetStudent(t *testing.T) {
	manager := &model.User{ID: 1, Role: model.RoleManager}
	tests := []struct {
		name    string
		service *fakeStudentService
		user    *model.User
		path    string
		want    int
	}{
		{"found", &fakeStudentService{}, manager, "/students/5", fiber.StatusOK},
		{"not owned", &fakeStudentService{getErr: apperr.NotFound(services.MsgStudentNotFound)}, manager, "/students/5", fiber.StatusNotFound},
		{"bad id", &fakeStudentService{}, manager, "/students/x", fiber.StatusBadRequest},
		{"student caller", &fakeStudentService{}, &model.User{ID: 2, Role: model.RoleStudent}, "/students/5", fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := newTestApp(tt.service, tt.user).Test(httptest.NewRequest("GET", tt.path, nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestListMyCoursesUsesCaller(t *testing.T) {
	service := &fakeStudentService{}

	resp, err := newTestApp(service, &model.User{ID: 9, Role: model.RoleStudent}).Test(httptest.NewRequest("GET", "/students-courses", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if service.studentID != 9 {
		t.Errorf("student id = %d, want 9", service.studentID)
	}
}
