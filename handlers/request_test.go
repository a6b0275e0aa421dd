package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		path string
		want uint
		ok   bool
	}{
		{"/items/12", 12, true},
		{"/items/0", 0, false},
		{"/items/-3", 0, false},
		{"/items/abc", 0, false},
	}

	for _, tt := range tests {
		var got uint
		var gotErr error

		app := fiber.New()
		app.Get("/items/:id", func(c *fiber.Ctx) error {
			got, gotErr = ParseID(c, "id")
			return c.SendStatus(fiber.StatusNoContent)
		})

		if _, err := app.Test(httptest.NewRequest("GET", tt.path, nil)); err != nil {
			t.Fatal(err)
		}
		if (gotErr == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseID(%s) = (%d, %v), want (%d, ok=%v)", tt.path, got, gotErr, tt.want, tt.ok)
		}
	}
}

func TestFormFileAbsent(t *testing.T) {
	app := fiber.New()
	app.Post("/upload", func(c *fiber.Ctx) error {
		file, closeFile, err := FormFile(c, "thumbnail")
		defer closeFile()
		if err != nil || file != nil {
			t.Errorf("FormFile() = (%v, %v), want (nil, nil)", file, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	if _, err := app.Test(httptest.NewRequest("POST", "/upload", nil)); err != nil {
		t.Fatal(err)
	}
}

func TestActorWithoutUser(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		if _, ok := Actor(c); ok {
			t.Error("Actor should fail without an authenticated user")
		}
		if _, ok := ManagerID(c); ok {
			t.Error("ManagerID should fail without an authenticated user")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	if _, err := app.Test(httptest.NewRequest("GET", "/", nil)); err != nil {
		t.Fatal(err)
	}
}
