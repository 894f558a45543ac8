package zonecfg

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoneflow/zoneflow/pkg/models"
)

func TestRegistryResolution(t *testing.T) {
	registry := NewRegistry(NewProteomicsSMB())

	ext, err := registry.Get("proteomics_smb")
	require.NoError(t, err)
	assert.Equal(t, "proteomics_smb", ext.Name())

	ext, err = registry.Get("")
	require.NoError(t, err)
	assert.Nil(t, ext, "zones without configuration resolve to no extension")

	_, err = registry.Get("does_not_exist")
	require.ErrorIs(t, err, ErrUnknownConfiguration)
}

func TestProteomicsSMBConfigValidation(t *testing.T) {
	ext := NewProteomicsSMB()

	require.NoError(t, ext.ValidateConfig(json.RawMessage(`{"share_name": "instr-01"}`)))

	err := ext.ValidateConfig(json.RawMessage(`{}`))
	require.ErrorIs(t, err, ErrInvalidConfigData)

	err = ext.ValidateConfig(json.RawMessage(`{"share_name": "x", "bogus": 1}`))
	require.ErrorIs(t, err, ErrInvalidConfigData)
}

func TestProteomicsSMBExtraFlowData(t *testing.T) {
	ext := NewProteomicsSMB()

	zone := &models.LandingZone{
		UUID:          "z1",
		Configuration: "proteomics_smb",
		ConfigData:    json.RawMessage(`{"share_name": "instr-01", "instrument_host": "tof.example.org"}`),
	}

	data := ext.ExtraFlowData(zone, "landing_zone_move")
	require.NotNil(t, data)

	metadata, ok := data["dest_coll_metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "instr-01", metadata["proteomics_smb/share"])
	assert.Equal(t, "tof.example.org", metadata["proteomics_smb/instrument"])

	assert.Nil(t, ext.ExtraFlowData(zone, "landing_zone_delete"))
}
