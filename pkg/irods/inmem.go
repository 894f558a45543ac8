package irods

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned for reads of absent objects or collections.
var ErrNotFound = errors.New("not found in storage backend")

type memObject struct {
	content  []byte
	checksum string
	scheme   ChecksumScheme
}

// InMemory is a storage driver held entirely in process memory. It backs
// unit tests and the inmem:// dev mode of the binaries.
type InMemory struct {
	mu      sync.Mutex
	colls   map[string]struct{}
	objects map[string]*memObject
	users   map[string]string
	access  map[string]map[string]AccessLevel
	inherit map[string]bool
	meta    map[string]map[string]string
}

func NewInMemory() *InMemory {
	return &InMemory{
		colls:   make(map[string]struct{}),
		objects: make(map[string]*memObject),
		users:   make(map[string]string),
		access:  make(map[string]map[string]AccessLevel),
		inherit: make(map[string]bool),
		meta:    make(map[string]map[string]string),
	}
}

var _ Client = (*InMemory)(nil)

func (c *InMemory) CreateCollection(_ context.Context, collPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createCollectionLocked(collPath)

	return nil
}

// createCollectionLocked creates the collection and any missing parents.
func (c *InMemory) createCollectionLocked(collPath string) {
	collPath = path.Clean(collPath)
	for collPath != "/" && collPath != "." {
		c.colls[collPath] = struct{}{}
		collPath = path.Dir(collPath)
	}
}

func (c *InMemory) RemoveCollection(_ context.Context, collPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	collPath = path.Clean(collPath)
	prefix := collPath + "/"

	delete(c.colls, collPath)
	delete(c.access, collPath)
	delete(c.inherit, collPath)
	delete(c.meta, collPath)

	for p := range c.colls {
		if strings.HasPrefix(p, prefix) {
			delete(c.colls, p)
			delete(c.access, p)
			delete(c.inherit, p)
			delete(c.meta, p)
		}
	}

	for p := range c.objects {
		if strings.HasPrefix(p, prefix) {
			delete(c.objects, p)
			delete(c.access, p)
		}
	}

	return nil
}

func (c *InMemory) CollectionExists(_ context.Context, collPath string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.colls[path.Clean(collPath)]

	return ok, nil
}

func (c *InMemory) SetAccess(_ context.Context, level AccessLevel, target, principal string, recursive bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	target = path.Clean(target)
	c.setAccessLocked(level, target, principal)

	if recursive {
		prefix := target + "/"
		for p := range c.colls {
			if strings.HasPrefix(p, prefix) {
				c.setAccessLocked(level, p, principal)
			}
		}
		for p := range c.objects {
			if strings.HasPrefix(p, prefix) {
				c.setAccessLocked(level, p, principal)
			}
		}
	}

	return nil
}

func (c *InMemory) setAccessLocked(level AccessLevel, target, principal string) {
	if level == AccessNull {
		delete(c.access[target], principal)

		return
	}

	if c.access[target] == nil {
		c.access[target] = make(map[string]AccessLevel)
	}
	c.access[target][principal] = level
}

func (c *InMemory) GetAccess(_ context.Context, target string) ([]AccessEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]AccessEntry, 0, len(c.access[path.Clean(target)]))
	for principal, level := range c.access[path.Clean(target)] {
		entries = append(entries, AccessEntry{Principal: principal, Level: level})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Principal < entries[j].Principal })

	return entries, nil
}

func (c *InMemory) SetInherit(_ context.Context, collPath string, inherit bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inherit[path.Clean(collPath)] = inherit

	return nil
}

func (c *InMemory) CreateUser(_ context.Context, name, userType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users[name] = userType

	return nil
}

func (c *InMemory) UserExists(_ context.Context, name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.users[name]

	return ok, nil
}

func (c *InMemory) BatchCreateCollections(_ context.Context, paths []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range paths {
		c.createCollectionLocked(p)
	}

	return nil
}

func (c *InMemory) BatchSetAccess(ctx context.Context, level AccessLevel, paths []string, principal string) error {
	for _, p := range paths {
		if err := c.SetAccess(ctx, level, p, principal, false); err != nil {
			return err
		}
	}

	return nil
}

func (c *InMemory) ListObjects(_ context.Context, collPath string, includeChecksum, includeColls bool) ([]DataObject, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := path.Clean(collPath) + "/"
	objects := make([]DataObject, 0)

	for p, obj := range c.objects {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		if !includeChecksum && isChecksumPath(p) {
			continue
		}

		objects = append(objects, DataObject{
			Path:     p,
			Name:     path.Base(p),
			Size:     int64(len(obj.content)),
			Checksum: obj.checksum,
		})
	}

	if includeColls {
		for p := range c.colls {
			if strings.HasPrefix(p, prefix) {
				objects = append(objects, DataObject{Path: p, Name: path.Base(p)})
			}
		}
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Path < objects[j].Path })

	return objects, nil
}

func isChecksumPath(p string) bool {
	return strings.HasSuffix(p, ".md5") || strings.HasSuffix(p, ".sha256")
}

func (c *InMemory) ObjectExists(_ context.Context, objPath string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.objects[path.Clean(objPath)]

	return ok, nil
}

func (c *InMemory) ReadObject(_ context.Context, objPath string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	obj, ok := c.objects[path.Clean(objPath)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, objPath)
	}

	content := make([]byte, len(obj.content))
	copy(content, obj.content)

	return content, nil
}

func (c *InMemory) ComputeChecksum(_ context.Context, objPath string, scheme ChecksumScheme) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	obj, ok := c.objects[path.Clean(objPath)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, objPath)
	}

	sum, err := hashContent(obj.content, scheme)
	if err != nil {
		return "", err
	}

	obj.checksum = sum
	obj.scheme = scheme

	return sum, nil
}

func (c *InMemory) ValidateChecksum(_ context.Context, objPath string, scheme ChecksumScheme) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	obj, ok := c.objects[path.Clean(objPath)]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, objPath)
	}
	if obj.checksum == "" {
		return false, nil
	}

	sum, err := hashContent(obj.content, scheme)
	if err != nil {
		return false, err
	}

	return sum == obj.checksum, nil
}

func hashContent(content []byte, scheme ChecksumScheme) (string, error) {
	switch scheme {
	case ChecksumMD5:
		sum := md5.Sum(content)

		return hex.EncodeToString(sum[:]), nil
	case ChecksumSHA256:
		sum := sha256.Sum256(content)

		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidChecksumScheme, scheme)
	}
}

func (c *InMemory) BatchMoveObjects(_ context.Context, srcPaths []string, srcRoot, destRoot string, level AccessLevel, principal string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	srcRoot = path.Clean(srcRoot)
	destRoot = path.Clean(destRoot)

	for _, src := range srcPaths {
		src = path.Clean(src)

		obj, ok := c.objects[src]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, src)
		}

		rel := strings.TrimPrefix(src, srcRoot+"/")
		dest := path.Join(destRoot, rel)

		c.createCollectionLocked(path.Dir(dest))
		c.objects[dest] = obj
		delete(c.objects, src)

		if acl, ok := c.access[src]; ok {
			c.access[dest] = acl
			delete(c.access, src)
		}

		if principal != "" {
			c.setAccessLocked(level, dest, principal)
		}
	}

	return nil
}

func (c *InMemory) SetCollectionMetadata(_ context.Context, collPath, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	collPath = path.Clean(collPath)
	if _, ok := c.colls[collPath]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, collPath)
	}

	if c.meta[collPath] == nil {
		c.meta[collPath] = make(map[string]string)
	}
	c.meta[collPath][key] = value

	return nil
}

func (c *InMemory) QueryByPathPrefix(_ context.Context, prefix string) ([]DataObject, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	objects := make([]DataObject, 0)
	for p, obj := range c.objects {
		if strings.HasPrefix(p, prefix) {
			objects = append(objects, DataObject{
				Path:     p,
				Name:     path.Base(p),
				Size:     int64(len(obj.content)),
				Checksum: obj.checksum,
			})
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Path < objects[j].Path })

	return objects, nil
}

// PutObject writes a data object, creating parent collections as needed.
// Used by tests and by the inmem:// dev mode seeding.
func (c *InMemory) PutObject(objPath string, content []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	objPath = path.Clean(objPath)
	c.createCollectionLocked(path.Dir(objPath))
	c.objects[objPath] = &memObject{content: content}
}

// CollectionMetadata returns the metadata attached to a collection.
func (c *InMemory) CollectionMetadata(collPath string) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]string, len(c.meta[path.Clean(collPath)]))
	for k, v := range c.meta[path.Clean(collPath)] {
		out[k] = v
	}

	return out
}

// AccessLevelFor returns the ACL level principal holds on target, if any.
func (c *InMemory) AccessLevelFor(target, principal string) (AccessLevel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	level, ok := c.access[path.Clean(target)][principal]

	return level, ok
}
