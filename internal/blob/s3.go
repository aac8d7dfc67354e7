package blob

import (
	"context"

	"ixforge/internal/infra/blob/s3"
)

// S3Config mirrors the S3 backend configuration for explicit construction.
type S3Config = s3.Config

// NewS3 constructs an S3-backed blob.Store from explicit configuration.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	return s3.New(ctx, cfg)
}

// OpenS3FromEnv constructs an S3-backed blob.Store from the environment.
func OpenS3FromEnv(ctx context.Context) (Store, error) {
	return s3.OpenFromEnv(ctx)
}

// NewMockS3ForTests returns an S3 store wired to an in-memory fake
// transport. Test use only.
func NewMockS3ForTests() Store {
	return s3.NewMockForTests()
}
