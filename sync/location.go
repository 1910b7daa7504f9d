package sync

import (
	"fmt"
	"strings"
)

// Scheme marks a remote address.
const Scheme = "s3://"

// Direction is the way a sync request moves content.
type Direction int

const (
	RemoteToRemote Direction = iota + 1
	LocalToRemote
	RemoteToLocal
)

func (d Direction) String() string {
	switch d {
	case RemoteToRemote:
		return "s3-to-s3"
	case LocalToRemote:
		return "local-to-s3"
	case RemoteToLocal:
		return "s3-to-local"
	default:
		return "unknown"
	}
}

// Location is either an object in a bucket or a path on the local filesystem.
// Exactly one form applies: Bucket is empty for local locations.
type Location struct {
	Bucket string
	Key    string
	Path   string
}

// Remote returns the location of key in bucket.
func Remote(bucket, key string) Location {
	return Location{Bucket: bucket, Key: key}
}

// Local returns the location of a filesystem path.
func Local(path string) Location {
	return Location{Path: path}
}

// IsRemote reports whether l addresses an object.
func (l Location) IsRemote() bool {
	return l.Bucket != ""
}

// String renders remote locations as s3://bucket/key and local ones as the path.
func (l Location) String() string {
	if l.IsRemote() {
		return Scheme + l.Bucket + "/" + l.Key
	}
	return l.Path
}

// IsRemote reports whether s carries the remote address scheme.
func IsRemote(s string) bool {
	return strings.HasPrefix(s, Scheme)
}

// ParseURI splits s3://bucket/some/key into its bucket and key.
func ParseURI(uri string) (bucket, key string, err error) {
	if !IsRemote(uri) {
		return "", "", fmt.Errorf("%w: %q is not an %s uri", ErrInvalidArgument, uri, Scheme)
	}
	rest := strings.TrimPrefix(uri, Scheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w: %q has no bucket", ErrInvalidArgument, uri)
	}
	return bucket, key, nil
}

// ParseLocation turns a command-line style address into a Location.
func ParseLocation(s string) (Location, error) {
	if !IsRemote(s) {
		if s == "" {
			return Location{}, fmt.Errorf("%w: empty location", ErrInvalidArgument)
		}
		return Local(s), nil
	}
	bucket, key, err := ParseURI(s)
	if err != nil {
		return Location{}, err
	}
	return Remote(bucket, key), nil
}

// Classify determines the direction of a sync from source to target.
// At least one side must be remote.
func Classify(source, target string) (Direction, error) {
	switch src, dst := IsRemote(source), IsRemote(target); {
	case src && dst:
		return RemoteToRemote, nil
	case !src && dst:
		return LocalToRemote, nil
	case src && !dst:
		return RemoteToLocal, nil
	default:
		return 0, fmt.Errorf("%w: at least one of source %q and target %q must be an %s uri",
			ErrInvalidArgument, source, target, Scheme)
	}
}

// WorkItem is one planned transfer.
type WorkItem struct {
	Direction Direction
	Source    Location
	Target    Location
}
