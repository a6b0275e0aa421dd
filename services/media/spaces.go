package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/gofiber/fiber/v2/log"
)

// SpacesConfig holds configuration for the DigitalOcean Spaces store
type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	CDNURL    string
}

// SpacesStore keeps media in an S3-compatible DigitalOcean Space
type SpacesStore struct {
	s3Client s3iface.S3API
	bucket   string
	endpoint string
	cdnURL   string
}

// NewSpacesStore creates a new Spaces store
func NewSpacesStore(config SpacesConfig) (*SpacesStore, error) {
	if config.Bucket == "" || config.Endpoint == "" {
		return nil, fmt.Errorf("spaces bucket and endpoint are required")
	}

	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spaces session: %w", err)
	}

	return newSpacesStore(s3.New(sess), config), nil
}

func newSpacesStore(client s3iface.S3API, config SpacesConfig) *SpacesStore {
	return &SpacesStore{
		s3Client: client,
		bucket:   config.Bucket,
		endpoint: strings.TrimPrefix(strings.TrimPrefix(config.Endpoint, "https://"), "http://"),
		cdnURL:   strings.TrimRight(config.CDNURL, "/"),
	}
}

// Upload puts the file under folder with public-read ACL
func (s *SpacesStore) Upload(ctx context.Context, folder string, file File) (*Asset, error) {
	body, err := readSeeker(file.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	key := ObjectKey(folder, file.Name)
	_, err = s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ACL:         aws.String("public-read"),
		ContentType: aws.String(ContentType(file)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	log.Infow("media uploaded", "driver", DriverSpaces, "key", key)
	return &Asset{URL: s.publicURL(key), Key: key}, nil
}

// Delete removes the object. Deleting a missing key is not an error.
func (s *SpacesStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	log.Infow("media deleted", "driver", DriverSpaces, "key", key)
	return nil
}

func (s *SpacesStore) publicURL(key string) string {
	if s.cdnURL != "" {
		return fmt.Sprintf("%s/%s", s.cdnURL, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", s.bucket, s.endpoint, key)
}

func readSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}
