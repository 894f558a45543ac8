package cmd

import (
	"fmt"
	"strings"

	"github.com/zoneflow/zoneflow/pkg/irods"
)

// NewStorage selects the storage driver from the storage URL. inmem:// is
// the in-process driver for development; production deployments register an
// iRODS driver under its own scheme.
func NewStorage(storageURL string) (irods.Client, error) {
	switch {
	case strings.HasPrefix(storageURL, "inmem://"):
		return irods.NewInMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", storageURL)
	}
}
