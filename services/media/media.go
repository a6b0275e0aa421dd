// Package media stores uploaded images in a remote object store and hands
// back the public URL together with the key needed to delete the object.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/novafs/lms-api/config"
)

// Remote folders
const (
	FolderCourses  = "lms/courses"
	FolderStudents = "lms/students"
)

const (
	DriverSpaces   = "spaces"
	DriverSupabase = "supabase"
)

var ErrUnsupportedDriver = errors.New("unsupported media driver")

// File is an upload candidate taken from a multipart form
type File struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Asset is a stored object
type Asset struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Store is a remote media store
type Store interface {
	Upload(ctx context.Context, folder string, file File) (*Asset, error)
	Delete(ctx context.Context, key string) error
}

// NewStore builds the store selected by MEDIA_DRIVER
func NewStore(env *config.EnviornmentVariable) (Store, error) {
	switch env.MEDIA_DRIVER {
	case DriverSpaces, "":
		return NewSpacesStore(SpacesConfig{
			AccessKey: env.DO_SPACES_ACCESS_KEY,
			SecretKey: env.DO_SPACES_SECRET_KEY,
			Bucket:    env.DO_SPACES_BUCKET,
			Region:    env.DO_SPACES_REGION,
			Endpoint:  env.DO_SPACES_ENDPOINT,
			CDNURL:    env.DO_SPACES_CDN_ENDPOINT,
		})
	case DriverSupabase:
		return NewSupabaseStore(SupabaseConfig{
			URL:    env.SUPABASE_URL,
			Key:    env.SUPABASE_KEY,
			Bucket: env.SUPABASE_BUCKET,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, env.MEDIA_DRIVER)
	}
}

// ObjectKey builds a collision free key: <folder>/<slug-of-name>-<uuid><ext>
func ObjectKey(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if base == "" {
		base = "file"
	}
	return fmt.Sprintf("%s/%s-%s%s", strings.Trim(folder, "/"), base, uuid.NewString(), ext)
}

// ContentType returns the declared type, falling back to the extension
func ContentType(file File) string {
	if file.ContentType != "" {
		return file.ContentType
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(file.Name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// IsImage reports whether the file is an image by content type
func IsImage(file File) bool {
	return strings.HasPrefix(ContentType(file), "image/")
}
