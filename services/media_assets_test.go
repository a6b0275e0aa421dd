package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/novafs/lms-api/services/media"
	"github.com/novafs/lms-api/utils/apperr"
)

// fakeMediaStore records uploads and deletes in memory
type fakeMediaStore struct {
	mu        sync.Mutex
	uploads   []string
	deletes   []string
	uploadErr error
	deleteErr error
}

func (f *fakeMediaStore) Upload(ctx context.Context, folder string, file media.File) (*media.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	key := fmt.Sprintf("%s/%d-%s", folder, len(f.uploads)+1, file.Name)
	f.uploads = append(f.uploads, key)
	return &media.Asset{URL: "https://cdn.example.com/" + key, Key: key}, nil
}

func (f *fakeMediaStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if key == "" {
		return nil
	}
	f.deletes = append(f.deletes, key)
	return f.deleteErr
}

func imageFile(name string) *media.File {
	return &media.File{
		Name:        name,
		ContentType: "image/png",
		Size:        4,
		Reader:      strings.NewReader("\x89PNG"),
	}
}

func TestUploadThenPersistCompensates(t *testing.T) {
	store := &fakeMediaStore{}
	persistErr := errors.New("insert failed")

	_, err := uploadThenPersist(context.Background(), store, media.FolderCourses, *imageFile("cover.png"), func(asset *media.Asset) error {
		return persistErr
	})
	if !errors.Is(err, persistErr) {
		t.Fatalf("expected persist error, got %v", err)
	}

	if len(store.uploads) != 1 || len(store.deletes) != 1 {
		t.Fatalf("uploads=%v deletes=%v, want one of each", store.uploads, store.deletes)
	}
	if store.deletes[0] != store.uploads[0] {
		t.Errorf("deleted %q, want the fresh upload %q", store.deletes[0], store.uploads[0])
	}
}

func TestUploadThenPersistUploadFailure(t *testing.T) {
	store := &fakeMediaStore{uploadErr: errors.New("bucket unavailable")}
	called := false

	_, err := uploadThenPersist(context.Background(), store, media.FolderCourses, *imageFile("cover.png"), func(asset *media.Asset) error {
		called = true
		return nil
	})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if called {
		t.Error("persist must not run when the upload fails")
	}
}

func TestReplaceAssetWithoutFile(t *testing.T) {
	store := &fakeMediaStore{}
	var got *media.Asset
	called := false

	err := replaceAsset(context.Background(), store, media.FolderStudents, nil, "lms/students/old.png", func(asset *media.Asset) error {
		called = true
		got = asset
		return nil
	})
	if err != nil {
		t.Fatalf("replaceAsset: %v", err)
	}
	if !called || got != nil {
		t.Errorf("persist called=%v asset=%v, want called with nil", called, got)
	}
	if len(store.uploads) != 0 || len(store.deletes) != 0 {
		t.Errorf("uploads=%v deletes=%v, want none", store.uploads, store.deletes)
	}
}

func TestReplaceAssetWithFile(t *testing.T) {
	store := &fakeMediaStore{}
	const oldKey = "lms/students/old.png"

	err := replaceAsset(context.Background(), store, media.FolderStudents, imageFile("new.png"), oldKey, func(asset *media.Asset) error {
		if asset == nil {
			t.Fatal("expected an uploaded asset")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("replaceAsset: %v", err)
	}

	if len(store.uploads) != 1 {
		t.Errorf("uploads = %v, want exactly one", store.uploads)
	}
	if len(store.deletes) != 1 || store.deletes[0] != oldKey {
		t.Errorf("deletes = %v, want [%s]", store.deletes, oldKey)
	}
}

func TestReplaceAssetPersistFailureKeepsOld(t *testing.T) {
	store := &fakeMediaStore{}
	const oldKey = "lms/courses/old.png"

	err := replaceAsset(context.Background(), store, media.FolderCourses, imageFile("new.png"), oldKey, func(asset *media.Asset) error {
		return apperr.Internal("update course", errors.New("deadlock"))
	})
	if err == nil {
		t.Fatal("expected an error")
	}

	// Only the fresh upload is rolled back
	if len(store.deletes) != 1 || store.deletes[0] == oldKey {
		t.Errorf("deletes = %v, want only the new upload removed", store.deletes)
	}
}

func TestReplaceAssetOldDeleteFailureIsNotFatal(t *testing.T) {
	store := &fakeMediaStore{deleteErr: errors.New("timeout")}

	err := replaceAsset(context.Background(), store, media.FolderCourses, imageFile("new.png"), "lms/courses/old.png", func(asset *media.Asset) error {
		return nil
	})
	if err != nil {
		t.Errorf("replaceAsset = %v, want nil once the row is saved", err)
	}
}
