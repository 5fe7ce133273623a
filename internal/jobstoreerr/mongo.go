package jobstoreerr

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// MapMongoError maps a document database driver error to a StoreError,
// mirroring the teacher's MapDBError: context errors first, then the
// driver's well-known sentinels, then an opaque transient wrapper for
// anything else.
func MapMongoError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return WrapTransient(err, "document database operation timed out or was canceled")
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	if mongo.IsDuplicateKeyError(err) {
		return AlreadyExistsf("document already exists: %v", err)
	}

	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return WrapTransient(err, "document database network error")
	}

	return WrapTransient(err, "document database operation failed")
}
