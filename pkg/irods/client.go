// Package irods defines the storage driver contract the flow engine runs
// against. The iRODS protocol client itself is not part of this repository;
// production deployments plug a driver in, tests and dev mode use the
// in-memory implementation.
package irods

import (
	"context"
	"errors"
	"fmt"
)

// AccessLevel is a storage backend ACL level.
type AccessLevel string

const (
	AccessOwn   AccessLevel = "own"
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
	AccessNull  AccessLevel = "null" // revoke
)

// ChecksumScheme selects the hash algorithm for data object checksums.
// Exactly two values are valid.
type ChecksumScheme string

const (
	ChecksumMD5    ChecksumScheme = "MD5"
	ChecksumSHA256 ChecksumScheme = "SHA256"
)

// ErrInvalidChecksumScheme is returned for any scheme outside {MD5, SHA256}.
var ErrInvalidChecksumScheme = errors.New("invalid checksum scheme")

// ParseChecksumScheme validates a configured scheme string.
func ParseChecksumScheme(s string) (ChecksumScheme, error) {
	switch ChecksumScheme(s) {
	case ChecksumMD5:
		return ChecksumMD5, nil
	case ChecksumSHA256:
		return ChecksumSHA256, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidChecksumScheme, s)
	}
}

// Suffix returns the checksum companion file suffix for the scheme.
func (s ChecksumScheme) Suffix() string {
	if s == ChecksumSHA256 {
		return ".sha256"
	}

	return ".md5"
}

// DataObject describes one data object in the storage backend.
type DataObject struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum,omitempty"`
}

// AccessEntry is one ACL entry on a collection or object.
type AccessEntry struct {
	Principal string      `json:"principal"`
	Level     AccessLevel `json:"level"`
}

// Client is the storage driver consumed by flow tasks. All methods are
// synchronous network calls against the backend.
type Client interface {
	CreateCollection(ctx context.Context, path string) error
	// RemoveCollection removes a collection and everything under it.
	// Removing an absent collection is not an error.
	RemoveCollection(ctx context.Context, path string) error
	CollectionExists(ctx context.Context, path string) (bool, error)

	SetAccess(ctx context.Context, level AccessLevel, path, principal string, recursive bool) error
	GetAccess(ctx context.Context, path string) ([]AccessEntry, error)
	SetInherit(ctx context.Context, path string, inherit bool) error

	CreateUser(ctx context.Context, name, userType string) error
	UserExists(ctx context.Context, name string) (bool, error)

	BatchCreateCollections(ctx context.Context, paths []string) error
	BatchSetAccess(ctx context.Context, level AccessLevel, paths []string, principal string) error

	// ListObjects lists data objects under path recursively. Checksum
	// companion files are excluded unless includeChecksum is set;
	// sub-collections are included as zero-size entries when includeColls
	// is set.
	ListObjects(ctx context.Context, path string, includeChecksum, includeColls bool) ([]DataObject, error)
	ObjectExists(ctx context.Context, path string) (bool, error)
	ReadObject(ctx context.Context, path string) ([]byte, error)

	ComputeChecksum(ctx context.Context, path string, scheme ChecksumScheme) (string, error)
	ValidateChecksum(ctx context.Context, path string, scheme ChecksumScheme) (bool, error)

	// BatchMoveObjects moves every object under srcRoot into the matching
	// sub-path under destRoot, granting principal the given access level
	// on each moved object as part of the move.
	BatchMoveObjects(ctx context.Context, srcPaths []string, srcRoot, destRoot string, level AccessLevel, principal string) error

	SetCollectionMetadata(ctx context.Context, path, key, value string) error
	QueryByPathPrefix(ctx context.Context, prefix string) ([]DataObject, error)
}
