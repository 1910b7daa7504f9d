package sync

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectMeta holds metadata about a stored object.
type ObjectMeta struct {
	Size     int64             `yaml:"size"`
	ModTime  time.Time         `yaml:"last_modified"`
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// TransferOptions are the optional parameters attached to every write.
// The zero value writes with bucket defaults and no extra metadata.
type TransferOptions struct {
	// KMSKeyID enables aws:kms server-side encryption with this key.
	KMSKeyID string
	// StorageClass overrides the bucket's default storage class.
	StorageClass types.StorageClass
	// Metadata is merged into the user metadata of written objects.
	// The fingerprint field always wins over an entry of the same name.
	Metadata map[string]string
}

// Store is the object storage the engine reads from and writes to.
type Store interface {
	// List returns every key under prefix, following pagination to the end.
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	// ListVersions returns the version ids of key.
	ListVersions(ctx context.Context, bucket, key string) ([]string, error)
	// Stat returns metadata for an existing object, or (nil, nil) if absent.
	Stat(ctx context.Context, bucket, key string) (*ObjectMeta, error)
	// Put uploads r with the given user metadata.
	Put(ctx context.Context, bucket, key string, r io.Reader, meta map[string]string, opts TransferOptions) error
	// Get writes the object's content to w and returns the byte count.
	Get(ctx context.Context, bucket, key string, w io.WriterAt) (int64, error)
	// Copy copies src to dst server side, replacing dst's metadata with meta.
	Copy(ctx context.Context, src, dst Location, meta map[string]string, opts TransferOptions) error
	// Delete removes an object, or one version of it when versionID is set.
	Delete(ctx context.Context, bucket, key, versionID string) error
}
