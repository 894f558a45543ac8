package tasks

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/zoneflow/zoneflow/pkg/irods"
	"github.com/zoneflow/zoneflow/pkg/taskflow"
)

// rebasePath maps a path under srcRoot to the matching sub-path under
// destRoot.
func rebasePath(p, srcRoot, destRoot string) string {
	rel := strings.TrimPrefix(path.Clean(p), path.Clean(srcRoot)+"/")

	return path.Join(destRoot, rel)
}

// BatchCheckFileSuffixTask fails when any file in the zone carries a
// prohibited name suffix. Read-only, nothing to revert.
type BatchCheckFileSuffixTask struct {
	taskflow.BaseTask

	Client   irods.Client
	Path     string
	Suffixes []string
}

func (t *BatchCheckFileSuffixTask) Run(ctx context.Context) (any, error) {
	if err := t.Precheck(); err != nil {
		return nil, err
	}

	if len(t.Suffixes) == 0 {
		return nil, nil
	}

	objects, err := t.Client.ListObjects(ctx, t.Path, true, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list zone objects: %w", err)
	}

	for _, obj := range objects {
		for _, suffix := range t.Suffixes {
			if strings.HasSuffix(strings.ToLower(obj.Name), strings.ToLower(suffix)) {
				return nil, fmt.Errorf("prohibited file type %q found: %s", suffix, obj.Path)
			}
		}
	}

	return nil, nil
}

// BatchCheckFilePairsTask verifies every data object has a checksum
// companion file and every companion file belongs to a data object. The
// first offending path fails the flow by name.
type BatchCheckFilePairsTask struct {
	taskflow.BaseTask

	Client irods.Client
	Path   string
	Scheme irods.ChecksumScheme
}

func (t *BatchCheckFilePairsTask) Run(ctx context.Context) (any, error) {
	if err := t.Precheck(); err != nil {
		return nil, err
	}

	objects, err := t.Client.ListObjects(ctx, t.Path, true, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list zone objects: %w", err)
	}

	suffix := t.Scheme.Suffix()
	present := make(map[string]struct{}, len(objects))
	for _, obj := range objects {
		present[obj.Path] = struct{}{}
	}

	for _, obj := range objects {
		if strings.HasSuffix(obj.Path, suffix) {
			dataPath := strings.TrimSuffix(obj.Path, suffix)
			if _, ok := present[dataPath]; !ok {
				return nil, fmt.Errorf("checksum file without data object: %s", obj.Path)
			}

			continue
		}

		if _, ok := present[obj.Path+suffix]; !ok {
			return nil, fmt.Errorf("missing checksum file for data object: expected %s", obj.Path+suffix)
		}
	}

	return nil, nil
}

// BatchComputeChecksumsTask computes backend catalog checksums for data
// objects that lack one. Adding a checksum to the catalog needs no revert.
type BatchComputeChecksumsTask struct {
	taskflow.BaseTask

	Client  irods.Client
	Objects []irods.DataObject
	Scheme  irods.ChecksumScheme
}

func (t *BatchComputeChecksumsTask) Run(ctx context.Context) (any, error) {
	if err := t.Precheck(); err != nil {
		return nil, err
	}

	for _, obj := range t.Objects {
		if obj.Checksum != "" {
			continue
		}

		if _, err := t.Client.ComputeChecksum(ctx, obj.Path, t.Scheme); err != nil {
			return nil, fmt.Errorf("failed to compute checksum for %s: %w", obj.Path, err)
		}
	}

	return nil, nil
}

// BatchValidateChecksumsTask compares every data object against its backend
// catalog checksum and its companion file content. Any disagreement fails
// the flow naming the offending path; no data is touched.
type BatchValidateChecksumsTask struct {
	taskflow.BaseTask

	Client irods.Client
	Paths  []string
	Scheme irods.ChecksumScheme
}

func (t *BatchValidateChecksumsTask) Run(ctx context.Context) (any, error) {
	if err := t.Precheck(); err != nil {
		return nil, err
	}

	for _, p := range t.Paths {
		ok, err := t.Client.ValidateChecksum(ctx, p, t.Scheme)
		if err != nil {
			return nil, fmt.Errorf("failed to validate checksum for %s: %w", p, err)
		}
		if !ok {
			return nil, fmt.Errorf("checksum validation failed for %s", p)
		}

		expected, err := t.Client.ComputeChecksum(ctx, p, t.Scheme)
		if err != nil {
			return nil, fmt.Errorf("failed to compute checksum for %s: %w", p, err)
		}

		companion, err := t.Client.ReadObject(ctx, p+t.Scheme.Suffix())
		if err != nil {
			return nil, fmt.Errorf("failed to read checksum file for %s: %w", p, err)
		}

		stored := parseChecksumFile(companion)
		if !strings.EqualFold(stored, expected) {
			return nil, fmt.Errorf("checksum mismatch for %s: stored %s, computed %s", p, stored, expected)
		}
	}

	return nil, nil
}

// parseChecksumFile extracts the hash from a companion file in md5sum
// format ("<hex>  <name>") or bare-hex form.
func parseChecksumFile(content []byte) string {
	fields := strings.Fields(string(content))
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}
