package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/novafs/lms-api/utils/response"
)

// BodyLimit caps request bodies; multipart uploads carry one image
const BodyLimit = 8 << 20

type APIServer struct {
	app           *fiber.App
	listenAddress string
}

func NewAPIServer(listenAddress string) *APIServer {
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:      "lms-api",
			BodyLimit:    BodyLimit,
			ErrorHandler: errorHandler,
		}),
		listenAddress: listenAddress,
	}
}

// errorHandler wraps errors that escape handlers, such as unmatched routes,
// in the response envelope
func errorHandler(c *fiber.Ctx, err error) error {
	var e *fiber.Error
	if errors.As(err, &e) {
		return response.Error(c, e.Code, e.Message)
	}
	log.Errorw("unhandled error", "path", c.Path(), "error", err)
	return response.InternalServerError(c)
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	log.Info("Starting API Server")
	log.Infof("Listening on %s", s.listenAddress)

	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}
