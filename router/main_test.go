package router

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/novafs/lms-api/config"
	"gorm.io/gorm"
)

type fakeStorage struct{}

func (fakeStorage) Init() error        { return nil }
func (fakeStorage) Close() error       { return nil }
func (fakeStorage) HealthCheck() error { return nil }
func (fakeStorage) GetDB() *gorm.DB    { return nil }

func testEnv() *config.EnviornmentVariable {
	return &config.EnviornmentVariable{
		JWT_SECRET:      "test-secret",
		MEDIA_DRIVER:    "supabase",
		SUPABASE_URL:    "http://localhost:54321",
		SUPABASE_KEY:    "test-key",
		SUPABASE_BUCKET: "lms",
		ALLOWED_ORIGINS: "http://localhost:5173",
	}
}

func routeHandlers(t *testing.T, app *fiber.App, method, path string) int {
	t.Helper()
	for _, route := range app.GetRoutes(true) {
		if route.Method == method && route.Path == path {
			return len(route.Handlers)
		}
	}
	t.Fatalf("route %s %s not registered", method, path)
	return 0
}

func TestSetupRoutesRequiresJWTSecret(t *testing.T) {
	env := testEnv()
	env.JWT_SECRET = ""

	if _, err := SetupRoutes(fiber.New(), fakeStorage{}, env); err != ErrMissingJWTSecret {
		t.Fatalf("err = %v, want ErrMissingJWTSecret", err)
	}
}

func TestRouteGuards(t *testing.T) {
	app := fiber.New()
	cleanup, err := SetupRoutes(app, fakeStorage{}, testEnv())
	if err != nil {
		t.Fatalf("SetupRoutes: %v", err)
	}
	defer cleanup()

	// signed-in routes carry the token check and the handler; manager routes
	// add the role check
	signedIn := routeHandlers(t, app, fiber.MethodGet, "/courses/:id")
	manager := routeHandlers(t, app, fiber.MethodGet, "/courses")
	if manager != signedIn+1 {
		t.Fatalf("manager route has %d handlers, signed-in route %d", manager, signedIn)
	}

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{fiber.MethodGet, "/categories", signedIn},
		{fiber.MethodGet, "/courses/contents/:id", signedIn},
		{fiber.MethodPost, "/courses", manager},
		{fiber.MethodGet, "/students", manager},
		{fiber.MethodGet, "/overviews", manager},
		{fiber.MethodPost, "/handle-payment-midtrans", 1},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if got := routeHandlers(t, app, tt.method, tt.path); got != tt.want {
				t.Errorf("handlers = %d, want %d", got, tt.want)
			}
		})
	}
}
