package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// Outcome is what happened to a work item.
type Outcome int

const (
	Skipped Outcome = iota + 1
	Transferred
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Transferred:
		return "transferred"
	default:
		return "unknown"
	}
}

// Result is the outcome of one work item and the address it concerned.
type Result struct {
	Outcome Outcome
	Target  string
}

// SyncItem compares the fingerprints of the item's source and target and
// transfers the source when they differ. A target that does not exist, or
// that carries no fingerprint, always differs.
func (e *Engine) SyncItem(ctx context.Context, item WorkItem) (Result, error) {
	srcFP, srcMeta, err := e.readSource(ctx, item.Source)
	if err != nil {
		return Result{}, err
	}
	dstFP, err := e.readTarget(ctx, item.Target)
	if err != nil {
		return Result{}, err
	}

	target := item.Target.String()
	if srcFP == dstFP {
		e.log.DebugContext(ctx, "up to date", "src", item.Source.String(), "dst", target, "fingerprint", srcFP)
		return Result{Outcome: Skipped, Target: target}, nil
	}

	switch item.Direction {
	case RemoteToRemote:
		meta := e.metadata(srcMeta.Metadata, srcFP)
		err = e.copy(ctx, item.Source, item.Target, meta)
	case LocalToRemote:
		err = e.upload(ctx, item.Source.Path, item.Target, srcFP)
	case RemoteToLocal:
		err = e.download(ctx, item.Source, item.Target.Path)
	default:
		err = fmt.Errorf("%w: unknown direction %d", ErrInvalidArgument, item.Direction)
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: Transferred, Target: target}, nil
}

// Fingerprint returns the content fingerprint of a file or object. It fails
// with ErrNotFound if the location does not exist and, for objects, with
// ErrMissingMetadata if the object was not written with a fingerprint.
func (e *Engine) Fingerprint(ctx context.Context, loc Location) (string, error) {
	if !loc.IsRemote() {
		return LocalFingerprint(loc.Path)
	}
	meta, err := e.stat(ctx, loc)
	if err != nil {
		return "", err
	}
	if meta == nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, loc)
	}
	fp, ok := metadataFingerprint(meta.Metadata)
	if !ok {
		return "", fmt.Errorf("%w: %s has no %q field", ErrMissingMetadata, loc, FingerprintMetadataKey)
	}
	return fp, nil
}

func (e *Engine) readSource(ctx context.Context, loc Location) (string, *ObjectMeta, error) {
	if !loc.IsRemote() {
		fp, err := LocalFingerprint(loc.Path)
		if errors.Is(err, ErrNotFound) {
			return "", nil, fmt.Errorf("%w: %s", ErrSourceNotFound, loc)
		}
		return fp, nil, err
	}

	meta, err := e.stat(ctx, loc)
	if err != nil {
		return "", nil, err
	}
	if meta == nil {
		return "", nil, fmt.Errorf("%w: %s", ErrSourceNotFound, loc)
	}
	fp, ok := metadataFingerprint(meta.Metadata)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s has no %q field", ErrMissingMetadata, loc, FingerprintMetadataKey)
	}
	return fp, meta, nil
}

// readTarget returns "" for targets that are absent or unverifiable.
func (e *Engine) readTarget(ctx context.Context, loc Location) (string, error) {
	fp, err := e.Fingerprint(ctx, loc)
	switch {
	case err == nil:
		return fp, nil
	case errors.Is(err, ErrNotFound):
		return "", nil
	case errors.Is(err, ErrMissingMetadata):
		e.log.WarnContext(ctx, "target has no fingerprint, overwriting", "dst", loc.String())
		return "", nil
	}
	return "", err
}

func (e *Engine) stat(ctx context.Context, loc Location) (*ObjectMeta, error) {
	meta, err := e.store.Stat(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return nil, &TransferError{Op: "head", Source: loc.String(), Err: err}
	}
	return meta, nil
}

// metadata builds the user metadata of a written object: base, then the
// configured extra metadata, then the fingerprint.
func (e *Engine) metadata(base map[string]string, fp string) map[string]string {
	meta := make(map[string]string, len(base)+len(e.transfer.Metadata))
	for k, v := range base {
		meta[k] = v
	}
	for k, v := range e.transfer.Metadata {
		meta[k] = v
	}
	return withFingerprint(meta, fp)
}

func (e *Engine) announce(ctx context.Context, op string, args ...any) {
	level := slog.LevelDebug
	if e.verbose {
		level = slog.LevelInfo
	}
	e.log.Log(ctx, level, op, append(args, "dryrun", e.dryRun)...)
}

func (e *Engine) upload(ctx context.Context, path string, dst Location, fp string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return &TransferError{Op: "upload", Source: path, Target: dst.String(), Err: err}
	}
	defer f.Close()

	var size uint64
	if info, err := f.Stat(); err == nil {
		size = uint64(info.Size())
	}
	e.announce(ctx, "upload", "src", path, "dst", dst.String(), "size", humanize.Bytes(size))
	if e.dryRun {
		return nil
	}

	if err := e.store.Put(ctx, dst.Bucket, dst.Key, f, e.metadata(nil, fp), e.transfer); err != nil {
		return &TransferError{Op: "upload", Source: path, Target: dst.String(), Err: err}
	}
	return nil
}

// download writes src to path through a temporary file in the same
// directory, so path only ever holds complete content.
func (e *Engine) download(ctx context.Context, src Location, path string) error {
	e.announce(ctx, "download", "src", src.String(), "dst", path)
	if e.dryRun {
		return nil
	}

	fail := func(err error) error {
		return &TransferError{Op: "download", Source: src.String(), Target: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fail(err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fail(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := e.store.Get(ctx, src.Bucket, src.Key, tmp); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fail(err)
	}
	return nil
}

func (e *Engine) copy(ctx context.Context, src, dst Location, meta map[string]string) error {
	e.announce(ctx, "copy", "src", src.String(), "dst", dst.String())
	if e.dryRun {
		return nil
	}
	if err := e.store.Copy(ctx, src, dst, meta, e.transfer); err != nil {
		return &TransferError{Op: "copy", Source: src.String(), Target: dst.String(), Err: err}
	}
	return nil
}

func (e *Engine) delete(ctx context.Context, loc Location, versionID string) error {
	if versionID != "" {
		e.announce(ctx, "delete", "dst", loc.String(), "version", versionID)
	} else {
		e.announce(ctx, "delete", "dst", loc.String())
	}
	if e.dryRun {
		return nil
	}
	if err := e.store.Delete(ctx, loc.Bucket, loc.Key, versionID); err != nil {
		return &TransferError{Op: "delete", Target: loc.String(), Err: err}
	}
	return nil
}
