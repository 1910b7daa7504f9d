package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Engine synchronizes content between S3 locations and the local filesystem,
// using the content fingerprint stored in object metadata to skip items that
// are already up to date.
type Engine struct {
	store    Store
	log      *slog.Logger
	dryRun   bool
	verbose  bool
	parallel bool
	workers  int
	transfer TransferOptions
}

// New creates an Engine over store. Engines are in dry-run mode unless
// WithDryRun(false) is given.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		log:     slog.Default(),
		dryRun:  true,
		workers: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DryRun reports whether the engine skips writes.
func (e *Engine) DryRun() bool {
	return e.dryRun
}

// Sync makes target hold the content of every object or file under source.
// One of source and target must be an s3:// uri. It returns the addresses
// written (or, in dry-run mode, that would have been written); targets that
// already matched are left out.
func (e *Engine) Sync(ctx context.Context, source, target string) ([]string, error) {
	dir, err := Classify(source, target)
	if err != nil {
		return nil, err
	}

	items, err := e.Plan(ctx, dir, source, target)
	if err != nil {
		return nil, err
	}
	e.log.Debug("sync planned", "direction", dir, "source", source, "target", target, "items", len(items))

	results, err := forEach(ctx, e, items, e.SyncItem)
	var written []string
	for _, r := range results {
		if r.Outcome == Transferred {
			written = append(written, r.Target)
		}
	}
	if err != nil {
		return written, err
	}

	e.log.Info("sync complete", "direction", dir, "items", len(items), "transferred", len(written), "dryrun", e.dryRun)
	return written, nil
}

// Plan enumerates the work items of a sync in direction dir.
func (e *Engine) Plan(ctx context.Context, dir Direction, source, target string) ([]WorkItem, error) {
	switch dir {
	case RemoteToRemote:
		srcBucket, srcPrefix, err := ParseURI(source)
		if err != nil {
			return nil, err
		}
		dstBucket, dstPrefix, err := ParseURI(target)
		if err != nil {
			return nil, err
		}
		keys, err := e.listFiles(ctx, srcBucket, srcPrefix)
		if err != nil {
			return nil, err
		}
		items := make([]WorkItem, 0, len(keys))
		for _, key := range keys {
			items = append(items, WorkItem{
				Direction: dir,
				Source:    Remote(srcBucket, key),
				Target:    Remote(dstBucket, JoinUnderPrefix(dstPrefix, relKey(srcPrefix, key))),
			})
		}
		return items, nil

	case LocalToRemote:
		dstBucket, dstPrefix, err := ParseURI(target)
		if err != nil {
			return nil, err
		}
		paths, err := walkFiles(source)
		if err != nil {
			return nil, err
		}
		items := make([]WorkItem, 0, len(paths))
		for _, path := range paths {
			rel, err := filepath.Rel(source, path)
			if err != nil {
				return nil, err
			}
			items = append(items, WorkItem{
				Direction: dir,
				Source:    Local(path),
				Target:    Remote(dstBucket, JoinUnderPrefix(dstPrefix, ToKeyForm(rel))),
			})
		}
		return items, nil

	case RemoteToLocal:
		srcBucket, srcPrefix, err := ParseURI(source)
		if err != nil {
			return nil, err
		}
		keys, err := e.listFiles(ctx, srcBucket, srcPrefix)
		if err != nil {
			return nil, err
		}
		items := make([]WorkItem, 0, len(keys))
		for _, key := range keys {
			path, err := localTarget(target, relKey(srcPrefix, key))
			if err != nil {
				return nil, fmt.Errorf("key %s: %w", key, err)
			}
			items = append(items, WorkItem{
				Direction: dir,
				Source:    Remote(srcBucket, key),
				Target:    Local(path),
			})
		}
		return items, nil
	}
	return nil, fmt.Errorf("%w: unknown direction %d", ErrInvalidArgument, dir)
}

// listFiles lists the keys under a directory-like prefix, leaving out folder
// placeholder objects.
func (e *Engine) listFiles(ctx context.Context, bucket, prefix string) ([]string, error) {
	keys, err := e.store.List(ctx, bucket, dirPrefix(prefix))
	if err != nil {
		return nil, &TransferError{Op: "list", Source: Remote(bucket, prefix).String(), Err: err}
	}
	files := keys[:0]
	for _, key := range keys {
		if !strings.HasSuffix(key, "/") {
			files = append(files, key)
		}
	}
	return files, nil
}

func walkFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, root)
		}
		return nil, fmt.Errorf("source: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: source %q is not a directory", ErrInvalidArgument, root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch {
		case d.Type().IsRegular():
			paths = append(paths, path)
		case d.Type()&fs.ModeSymlink != 0:
			// Links to files are synced as files; links to directories
			// and dangling links are not followed.
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				paths = append(paths, path)
			}
		}
		return nil
	})
	return paths, err
}
