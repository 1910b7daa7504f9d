package sync

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// FingerprintMetadataKey is the user metadata field holding an object's
// content hash. Objects written by other tools do not carry it.
const FingerprintMetadataKey = "x-amz-meta-object-hash"

const fingerprintChunkSize = 4096

// LocalFingerprint returns the hex MD5 digest of the file at path, reading it
// in fixed size chunks.
func LocalFingerprint(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrNotFound, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	buf := make([]byte, fingerprintChunkSize)
	for {
		n, err := f.Read(buf)
		h.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("hash %s: %w", path, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// metadataFingerprint extracts the fingerprint from object metadata.
func metadataFingerprint(meta map[string]string) (string, bool) {
	v, ok := meta[FingerprintMetadataKey]
	return v, ok && v != ""
}

// withFingerprint returns a copy of meta with the fingerprint set.
func withFingerprint(meta map[string]string, fp string) map[string]string {
	out := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	out[FingerprintMetadataKey] = fp
	return out
}
