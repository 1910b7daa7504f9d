package sync

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinUnderPrefix(t *testing.T) {
	tests := []struct {
		prefix string
		rel    string
		want   string
	}{
		{"", "foo.txt", "foo.txt"},
		{"backups", "foo.txt", "backups/foo.txt"},
		{"backups/", "foo.txt", "backups/foo.txt"},
		{"backups", "a/b/c.txt", "backups/a/b/c.txt"},
		{"", "/foo.txt", "foo.txt"}, // leading slash stripped
		{"backups/", "/foo.txt", "backups/foo.txt"},
		{"backups", "", "backups"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, JoinUnderPrefix(tt.prefix, tt.rel), "JoinUnderPrefix(%q, %q)", tt.prefix, tt.rel)
	}
}

func TestRelKey(t *testing.T) {
	tests := []struct {
		prefix string
		full   string
		want   string
	}{
		{"", "foo.txt", "foo.txt"},
		{"backups", "backups/foo.txt", "foo.txt"},
		{"backups/", "backups/foo.txt", "foo.txt"},
		{"backups", "backups/a/b/c.txt", "a/b/c.txt"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, relKey(tt.prefix, tt.full), "relKey(%q, %q)", tt.prefix, tt.full)
	}
}

// TestKeyRoundTrip verifies that relKey(prefix, JoinUnderPrefix(prefix, rel)) == rel.
func TestKeyRoundTrip(t *testing.T) {
	cases := []struct {
		prefix string
		keys   []string
	}{
		{"", []string{"foo.txt", "a/b/c.txt"}},
		{"backups", []string{"foo.txt", "a/b/c.txt"}},
		{"backups/", []string{"foo.txt", "a/b/c.txt"}},
	}

	for _, tc := range cases {
		for _, key := range tc.keys {
			assert.Equal(t, key, relKey(tc.prefix, JoinUnderPrefix(tc.prefix, key)), "prefix=%q", tc.prefix)
		}
	}
}

func TestToKeyForm(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a/b/c.txt", "a/b/c.txt"},
		{`a\b\c.txt`, "a/b/c.txt"},
		{`C:\data\subjects\1001.csv`, "/data/subjects/1001.csv"},
		{"C:/data/a.txt", "/data/a.txt"},
		{`D:rel\x.txt`, "rel/x.txt"},
		{`notes:v2\a.txt`, "notes:v2/a.txt"},
		{"c:notes.txt", "c:notes.txt"},
		{"a/b:c/d.txt", "a/b:c/d.txt"},
		{"plain.txt", "plain.txt"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ToKeyForm(tt.path), "ToKeyForm(%q)", tt.path)
	}
}

func TestPathTranslationRoundTrip(t *testing.T) {
	for _, p := range []string{
		filepath.Join("subjects", "1001", "data.csv"),
		"file.txt",
		filepath.Join("a", "b"),
	} {
		assert.Equal(t, p, ToLocalForm(ToKeyForm(p)))
	}
}

func TestDirPrefix(t *testing.T) {
	assert.Equal(t, "", dirPrefix(""))
	assert.Equal(t, "data/", dirPrefix("data"))
	assert.Equal(t, "data/", dirPrefix("data/"))
}

func TestLocalTarget(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "data", "target")
	tests := []struct {
		rel     string
		want    string
		wantErr bool
	}{
		{"a.txt", filepath.Join(root, "a.txt"), false},
		{"deep/x/y.txt", filepath.Join(root, "deep", "x", "y.txt"), false},
		{"a/../b.txt", filepath.Join(root, "b.txt"), false},
		{"..data.txt", filepath.Join(root, "..data.txt"), false},
		{"../escaped.txt", "", true},
		{"a/../../escaped.txt", "", true},
		{"..", "", true},
	}

	for _, tt := range tests {
		got, err := localTarget(root, tt.rel)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidArgument, "localTarget(%q)", tt.rel)
			continue
		}
		require.NoError(t, err, "localTarget(%q)", tt.rel)
		assert.Equal(t, tt.want, got)
	}
}
