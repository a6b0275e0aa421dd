package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/novafs/lms-api/model"
	"github.com/novafs/lms-api/services"
	"github.com/novafs/lms-api/services/media"
	"github.com/novafs/lms-api/utils/middleware"
)

// MaxImageSize bounds uploaded thumbnails and avatars
const MaxImageSize = 5 << 20

var (
	ErrInvalidID    = errors.New("invalid id")
	ErrFileTooLarge = errors.New("file too large")
)

// ParseID reads a positive numeric route parameter
func ParseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return uint(id), nil
}

// Actor builds the service caller from the authenticated user
func Actor(c *fiber.Ctx) (services.Actor, bool) {
	user, ok := middleware.GetUser(c)
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{ID: user.ID, Role: user.Role}, true
}

// ManagerID returns the authenticated manager's id
func ManagerID(c *fiber.Ctx) (uint, bool) {
	user, ok := middleware.GetUser(c)
	if !ok || user.Role != model.RoleManager {
		return 0, false
	}
	return user.ID, true
}

// FormFile opens an optional multipart file. It returns a nil file when
// the field is absent; the caller must run the returned close func.
func FormFile(c *fiber.Ctx, field string) (*media.File, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		// Missing field or non-multipart body
		return nil, func() {}, nil
	}

	if header.Size > MaxImageSize {
		return nil, func() {}, ErrFileTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}

	return &media.File{
		Name:        header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Reader:      f,
	}, func() { f.Close() }, nil
}
