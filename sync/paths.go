package sync

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ToKeyForm converts a filesystem path into slash-delimited key form.
// A leading Windows drive such as "C:" is dropped; a colon anywhere else is
// part of a name and kept.
func ToKeyForm(path string) string {
	windows := strings.Contains(path, `\`)
	if hasDrive(path) && (windows || len(path) > 2 && path[2] == '/') {
		path = path[2:]
	}
	if windows {
		return strings.ReplaceAll(path, `\`, "/")
	}
	return filepath.ToSlash(path)
}

func hasDrive(path string) bool {
	if len(path) < 2 || path[1] != ':' {
		return false
	}
	c := path[0]
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

// ToLocalForm converts a key into a path using the native separator.
func ToLocalForm(key string) string {
	return filepath.FromSlash(key)
}

// localTarget places key form rel under root, refusing results that would
// land outside root (a key such as "../../etc/x").
func localTarget(root, rel string) (string, error) {
	path := filepath.Join(root, ToLocalForm(rel))
	r, err := filepath.Rel(root, path)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) || filepath.IsAbs(r) {
		return "", fmt.Errorf("%w: %q resolves outside %s", ErrInvalidArgument, rel, root)
	}
	return path, nil
}

// JoinUnderPrefix joins rel onto prefix with exactly one "/" between them.
func JoinUnderPrefix(prefix, rel string) string {
	prefix = strings.TrimRight(prefix, "/")
	rel = strings.TrimLeft(rel, "/")
	switch {
	case prefix == "":
		return rel
	case rel == "":
		return prefix
	}
	return prefix + "/" + rel
}

// dirPrefix turns a key prefix into a directory-like listing prefix so that
// "data" does not also match "database/...".
func dirPrefix(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}

// relKey strips a directory-like prefix from a listed key.
func relKey(prefix, key string) string {
	return strings.TrimPrefix(strings.TrimPrefix(key, dirPrefix(prefix)), "/")
}
