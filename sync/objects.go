package sync

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Transfer is a single source to target request for the bulk helpers.
type Transfer struct {
	Source Location
	Target Location
}

// List returns the keys under prefix that contain filter.
func (e *Engine) List(ctx context.Context, bucket, prefix, filter string) ([]string, error) {
	keys, err := e.store.List(ctx, bucket, prefix)
	if err != nil {
		return nil, &TransferError{Op: "list", Source: Remote(bucket, prefix).String(), Err: err}
	}
	if filter == "" {
		return keys, nil
	}
	matched := keys[:0]
	for _, key := range keys {
		if strings.Contains(key, filter) {
			matched = append(matched, key)
		}
	}
	return matched, nil
}

// ListVersions returns the version ids of an object.
func (e *Engine) ListVersions(ctx context.Context, bucket, key string) ([]string, error) {
	versions, err := e.store.ListVersions(ctx, bucket, key)
	if err != nil {
		return nil, &TransferError{Op: "list versions", Source: Remote(bucket, key).String(), Err: err}
	}
	return versions, nil
}

// Exists reports whether an object exists.
func (e *Engine) Exists(ctx context.Context, loc Location) (bool, error) {
	meta, err := e.stat(ctx, loc)
	return meta != nil, err
}

// Head returns an object's metadata, failing with ErrNotFound if it is absent.
func (e *Engine) Head(ctx context.Context, loc Location) (*ObjectMeta, error) {
	meta, err := e.stat(ctx, loc)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
	}
	return meta, nil
}

// Size returns an object's size in bytes.
func (e *Engine) Size(ctx context.Context, loc Location) (int64, error) {
	meta, err := e.Head(ctx, loc)
	if err != nil {
		return 0, err
	}
	return meta.Size, nil
}

// LastModified returns when an object was last written.
func (e *Engine) LastModified(ctx context.Context, loc Location) (time.Time, error) {
	meta, err := e.Head(ctx, loc)
	if err != nil {
		return time.Time{}, err
	}
	return meta.ModTime, nil
}

// Metadata returns an object's user metadata.
func (e *Engine) Metadata(ctx context.Context, loc Location) (map[string]string, error) {
	meta, err := e.Head(ctx, loc)
	if err != nil {
		return nil, err
	}
	return meta.Metadata, nil
}

// Upload writes the local file at path to dst, tagging it with the file's
// fingerprint. It returns dst's uri.
func (e *Engine) Upload(ctx context.Context, path string, dst Location) (string, error) {
	if !dst.IsRemote() {
		return "", fmt.Errorf("%w: upload target %q is not remote", ErrInvalidArgument, dst)
	}
	fp, err := LocalFingerprint(path)
	if err != nil {
		return "", err
	}
	if err := e.upload(ctx, path, dst, fp); err != nil {
		return "", err
	}
	return dst.String(), nil
}

// Download writes src to the local file at path, creating parent directories.
func (e *Engine) Download(ctx context.Context, src Location, path string) (string, error) {
	if !src.IsRemote() {
		return "", fmt.Errorf("%w: download source %q is not remote", ErrInvalidArgument, src)
	}
	if err := e.download(ctx, src, path); err != nil {
		return "", err
	}
	return path, nil
}

// Copy copies an object server side, keeping its user metadata (and so its
// fingerprint). It returns dst's uri. A source written without a fingerprint
// is still copied; the copy has none either, so a later Sync onto dst
// overwrites it.
func (e *Engine) Copy(ctx context.Context, src, dst Location) (string, error) {
	if !src.IsRemote() || !dst.IsRemote() {
		return "", fmt.Errorf("%w: copy needs two remote locations, got %q and %q", ErrInvalidArgument, src, dst)
	}
	meta, err := e.Head(ctx, src)
	if err != nil {
		return "", err
	}
	if _, ok := metadataFingerprint(meta.Metadata); !ok {
		e.log.WarnContext(ctx, "copying object without fingerprint", "src", src.String(), "dst", dst.String())
	}
	merged := make(map[string]string, len(meta.Metadata)+len(e.transfer.Metadata))
	for k, v := range meta.Metadata {
		merged[k] = v
	}
	for k, v := range e.transfer.Metadata {
		if k != FingerprintMetadataKey {
			merged[k] = v
		}
	}
	if err := e.copy(ctx, src, dst, merged); err != nil {
		return "", err
	}
	return dst.String(), nil
}

// Move copies src to dst and then deletes src.
func (e *Engine) Move(ctx context.Context, src, dst Location) (string, error) {
	uri, err := e.Copy(ctx, src, dst)
	if err != nil {
		return "", err
	}
	if err := e.delete(ctx, src, ""); err != nil {
		return "", err
	}
	return uri, nil
}

// Delete removes an object, or a single version of it when versionID is set.
func (e *Engine) Delete(ctx context.Context, loc Location, versionID string) (string, error) {
	if !loc.IsRemote() {
		return "", fmt.Errorf("%w: %q is not remote", ErrInvalidArgument, loc)
	}
	if err := e.delete(ctx, loc, versionID); err != nil {
		return "", err
	}
	return loc.String(), nil
}

// DeletePrefix removes every object under prefix.
func (e *Engine) DeletePrefix(ctx context.Context, bucket, prefix string) ([]string, error) {
	keys, err := e.List(ctx, bucket, prefix, "")
	if err != nil {
		return nil, err
	}
	locs := make([]Location, len(keys))
	for i, key := range keys {
		locs[i] = Remote(bucket, key)
	}
	return e.DeleteMany(ctx, locs)
}

// DeleteAllVersions removes every version of an object and returns the
// version ids removed.
func (e *Engine) DeleteAllVersions(ctx context.Context, bucket, key string) ([]string, error) {
	versions, err := e.ListVersions(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	loc := Remote(bucket, key)
	return forEach(ctx, e, versions, func(ctx context.Context, version string) (string, error) {
		if err := e.delete(ctx, loc, version); err != nil {
			return "", err
		}
		return version, nil
	})
}

// CopyMany runs Copy for every transfer.
func (e *Engine) CopyMany(ctx context.Context, transfers []Transfer) ([]string, error) {
	return forEach(ctx, e, transfers, func(ctx context.Context, t Transfer) (string, error) {
		return e.Copy(ctx, t.Source, t.Target)
	})
}

// MoveMany runs Move for every transfer.
func (e *Engine) MoveMany(ctx context.Context, transfers []Transfer) ([]string, error) {
	return forEach(ctx, e, transfers, func(ctx context.Context, t Transfer) (string, error) {
		return e.Move(ctx, t.Source, t.Target)
	})
}

// UploadMany runs Upload for every transfer. Sources must be local.
func (e *Engine) UploadMany(ctx context.Context, transfers []Transfer) ([]string, error) {
	return forEach(ctx, e, transfers, func(ctx context.Context, t Transfer) (string, error) {
		if t.Source.IsRemote() {
			return "", fmt.Errorf("%w: upload source %q is not local", ErrInvalidArgument, t.Source)
		}
		return e.Upload(ctx, t.Source.Path, t.Target)
	})
}

// DownloadMany runs Download for every transfer. Targets must be local.
func (e *Engine) DownloadMany(ctx context.Context, transfers []Transfer) ([]string, error) {
	return forEach(ctx, e, transfers, func(ctx context.Context, t Transfer) (string, error) {
		if t.Target.IsRemote() {
			return "", fmt.Errorf("%w: download target %q is not local", ErrInvalidArgument, t.Target)
		}
		return e.Download(ctx, t.Source, t.Target.Path)
	})
}

// DeleteMany runs Delete for every location.
func (e *Engine) DeleteMany(ctx context.Context, locs []Location) ([]string, error) {
	return forEach(ctx, e, locs, func(ctx context.Context, loc Location) (string, error) {
		return e.Delete(ctx, loc, "")
	})
}
