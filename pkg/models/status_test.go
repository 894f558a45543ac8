package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZoneStatusValid(t *testing.T) {
	t.Parallel()

	for status := range zoneStatuses {
		assert.True(t, status.Valid(), status)
	}

	assert.False(t, ZoneStatus("BOGUS").Valid())
	assert.False(t, ZoneStatus("").Valid())
	assert.False(t, ZoneStatus("active").Valid(), "status values are case sensitive")
	assert.False(t, ZoneStatus("NOT_CREATED").Valid(), "the creation failure status is spelled with a space")
}

func TestZoneStatusPredicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status      ZoneStatus
		finished    bool
		busy        bool
		locking     bool
		allowUpdate bool
	}{
		{ZoneStatusCreating, false, true, false, false},
		{ZoneStatusNotCreated, true, false, false, false},
		{ZoneStatusActive, false, false, false, true},
		{ZoneStatusPreparing, false, true, true, false},
		{ZoneStatusValidating, false, true, true, false},
		{ZoneStatusMoving, false, true, true, false},
		{ZoneStatusMoved, true, false, false, false},
		{ZoneStatusFailed, false, false, false, true},
		{ZoneStatusDeleting, false, true, false, false},
		{ZoneStatusDeleted, true, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.finished, tt.status.Finished(), "Finished")
			assert.Equal(t, tt.busy, tt.status.Busy(), "Busy")
			assert.Equal(t, tt.locking, tt.status.Locking(), "Locking")
			assert.Equal(t, tt.allowUpdate, tt.status.AllowUpdate(), "AllowUpdate")
		})
	}
}

func TestZoneStatusDefaultInfo(t *testing.T) {
	t.Parallel()

	for status := range zoneStatuses {
		assert.NotEmpty(t, status.DefaultInfo(), status)
	}
}
