package services

import (
	"context"

	"github.com/gofiber/fiber/v2/log"
	"github.com/novafs/lms-api/services/media"
	"github.com/novafs/lms-api/utils/apperr"
)

// uploadThenPersist uploads file and hands the asset to persist. When
// persist fails the fresh upload is removed again, so a failed mutation
// never leaves an orphaned object behind.
func uploadThenPersist(ctx context.Context, store media.Store, folder string, file media.File, persist func(asset *media.Asset) error) (*media.Asset, error) {
	asset, err := store.Upload(ctx, folder, file)
	if err != nil {
		return nil, apperr.Internal("upload media", err)
	}

	if err := persist(asset); err != nil {
		if delErr := store.Delete(ctx, asset.Key); delErr != nil {
			log.Warnw("orphaned media after failed write", "key", asset.Key, "error", delErr)
		}
		return nil, err
	}

	return asset, nil
}

// replaceAsset swaps a stored object for a new upload.
// With a nil file it does nothing beyond persist(nil).
// Otherwise it performs exactly one upload and, after persist succeeds,
// exactly one delete of oldKey.
func replaceAsset(ctx context.Context, store media.Store, folder string, file *media.File, oldKey string, persist func(asset *media.Asset) error) error {
	if file == nil {
		return persist(nil)
	}

	if _, err := uploadThenPersist(ctx, store, folder, *file, persist); err != nil {
		return err
	}

	if oldKey != "" {
		if err := store.Delete(ctx, oldKey); err != nil {
			log.Warnw("failed to delete replaced media", "key", oldKey, "error", err)
		}
	}
	return nil
}
