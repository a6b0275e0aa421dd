package media

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	storage "github.com/supabase-community/storage-go"
)

// SupabaseConfig holds configuration for the Supabase Storage store
type SupabaseConfig struct {
	URL    string
	Key    string
	Bucket string
}

// SupabaseStore keeps media in a public Supabase Storage bucket
type SupabaseStore struct {
	client  *storage.Client
	baseURL string
	bucket  string
}

// NewSupabaseStore creates a new Supabase store
func NewSupabaseStore(config SupabaseConfig) (*SupabaseStore, error) {
	if config.URL == "" || config.Key == "" {
		return nil, fmt.Errorf("supabase url and key are required")
	}

	baseURL := strings.TrimRight(config.URL, "/")
	return &SupabaseStore{
		client:  storage.NewClient(baseURL+"/storage/v1", config.Key, nil),
		baseURL: baseURL,
		bucket:  config.Bucket,
	}, nil
}

// Upload stores the file under folder in the configured bucket.
// The storage client has no context support; ctx is only checked up front.
func (s *SupabaseStore) Upload(ctx context.Context, folder string, file File) (*Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := ObjectKey(folder, file.Name)
	contentType := ContentType(file)
	options := storage.FileOptions{
		ContentType: &contentType,
	}

	if _, err := s.client.UploadFile(s.bucket, key, file.Reader, options); err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	log.Infow("media uploaded", "driver", DriverSupabase, "key", key)
	return &Asset{URL: s.publicURL(key), Key: key}, nil
}

// Delete removes the object from the bucket
func (s *SupabaseStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.client.RemoveFile(s.bucket, []string{key}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	log.Infow("media deleted", "driver", DriverSupabase, "key", key)
	return nil
}

func (s *SupabaseStore) publicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, key)
}
