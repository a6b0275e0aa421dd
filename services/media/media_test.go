package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/novafs/lms-api/config"
)

type fakeS3 struct {
	s3iface.S3API
	puts    []*s3.PutObjectInput
	deletes []string
	putErr  error
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectWithContext(ctx aws.Context, in *s3.DeleteObjectInput, opts ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey(FolderCourses, "My Course Cover.PNG")

	if !strings.HasPrefix(key, "lms/courses/my-course-cover-") {
		t.Errorf("unexpected key prefix: %s", key)
	}
	if !strings.HasSuffix(key, ".png") {
		t.Errorf("expected lowercase extension, got %s", key)
	}
	if ObjectKey(FolderCourses, "a.png") == ObjectKey(FolderCourses, "a.png") {
		t.Error("expected unique keys for the same filename")
	}
}

func TestObjectKeyEmptyName(t *testing.T) {
	key := ObjectKey(FolderStudents, ".jpg")
	if !strings.HasPrefix(key, "lms/students/file-") {
		t.Errorf("expected fallback base name, got %s", key)
	}
}

func TestContentTypeFallback(t *testing.T) {
	if got := ContentType(File{Name: "a.png"}); got != "image/png" {
		t.Errorf("expected image/png, got %s", got)
	}
	if got := ContentType(File{Name: "a.png", ContentType: "image/webp"}); got != "image/webp" {
		t.Errorf("declared type should win, got %s", got)
	}
	if !IsImage(File{Name: "avatar.jpg"}) {
		t.Error("jpg should be an image")
	}
	if IsImage(File{Name: "notes.pdf"}) {
		t.Error("pdf should not be an image")
	}
}

func TestSpacesStoreUploadAndDelete(t *testing.T) {
	fake := &fakeS3{}
	store := newSpacesStore(fake, SpacesConfig{
		Bucket:   "lms",
		Endpoint: "https://sgp1.digitaloceanspaces.com",
	})

	asset, err := store.Upload(context.Background(), FolderCourses, File{
		Name:   "cover.png",
		Reader: io.NopCloser(strings.NewReader("png-bytes")),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if len(fake.puts) != 1 {
		t.Fatalf("expected one put, got %d", len(fake.puts))
	}
	if aws.StringValue(fake.puts[0].ACL) != "public-read" {
		t.Errorf("expected public-read ACL")
	}
	if aws.StringValue(fake.puts[0].ContentType) != "image/png" {
		t.Errorf("unexpected content type %s", aws.StringValue(fake.puts[0].ContentType))
	}
	if want := "https://lms.sgp1.digitaloceanspaces.com/" + asset.Key; asset.URL != want {
		t.Errorf("expected url %s, got %s", want, asset.URL)
	}

	if err := store.Delete(context.Background(), asset.Key); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(fake.deletes) != 1 || fake.deletes[0] != asset.Key {
		t.Errorf("expected delete of %s, got %v", asset.Key, fake.deletes)
	}
}

func TestSpacesStoreCDNURL(t *testing.T) {
	store := newSpacesStore(&fakeS3{}, SpacesConfig{
		Bucket:   "lms",
		Endpoint: "sgp1.digitaloceanspaces.com",
		CDNURL:   "https://cdn.example.com/",
	})

	asset, err := store.Upload(context.Background(), FolderStudents, File{Name: "me.jpg", Reader: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if !strings.HasPrefix(asset.URL, "https://cdn.example.com/lms/students/") {
		t.Errorf("expected cdn url, got %s", asset.URL)
	}
}

func TestSpacesStoreUploadError(t *testing.T) {
	store := newSpacesStore(&fakeS3{putErr: errors.New("boom")}, SpacesConfig{Bucket: "lms", Endpoint: "x"})

	if _, err := store.Upload(context.Background(), FolderCourses, File{Name: "a.png", Reader: strings.NewReader("x")}); err == nil {
		t.Fatal("expected upload error")
	}
}

func TestSpacesStoreDeleteEmptyKey(t *testing.T) {
	fake := &fakeS3{}
	store := newSpacesStore(fake, SpacesConfig{Bucket: "lms", Endpoint: "x"})

	if err := store.Delete(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.deletes) != 0 {
		t.Error("empty key must not reach the store")
	}
}

func TestNewStoreUnknownDriver(t *testing.T) {
	_, err := NewStore(&config.EnviornmentVariable{MEDIA_DRIVER: "cloudinary"})
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestNewStoreSupabaseRequiresCredentials(t *testing.T) {
	if _, err := NewStore(&config.EnviornmentVariable{MEDIA_DRIVER: DriverSupabase}); err == nil {
		t.Fatal("expected error for missing supabase credentials")
	}
}
