package zonecfg

import (
	"context"
	"encoding/json"

	"github.com/zoneflow/zoneflow/pkg/models"
)

// proteomicsSMBSchema constrains the config_data of proteomics_smb zones.
const proteomicsSMBSchema = `{
	"type": "object",
	"properties": {
		"share_name": {"type": "string", "minLength": 1},
		"instrument_host": {"type": "string"}
	},
	"required": ["share_name"],
	"additionalProperties": false
}`

// ProteomicsSMB supports zones fed by proteomics instruments over an SMB
// share. Completed moves are stamped with the share origin as collection
// metadata so downstream tooling can trace the acquisition source.
type ProteomicsSMB struct{}

func NewProteomicsSMB() *ProteomicsSMB {
	return &ProteomicsSMB{}
}

func (e *ProteomicsSMB) Name() string {
	return "proteomics_smb"
}

func (e *ProteomicsSMB) ValidateConfig(raw json.RawMessage) error {
	return validateSchema(proteomicsSMBSchema, raw)
}

type proteomicsSMBConfig struct {
	ShareName      string `json:"share_name"`
	InstrumentHost string `json:"instrument_host"`
}

func (e *ProteomicsSMB) ExtraFlowData(zone *models.LandingZone, flowName string) map[string]any {
	if flowName != "landing_zone_move" {
		return nil
	}

	var cfg proteomicsSMBConfig
	if err := json.Unmarshal(zone.ConfigData, &cfg); err != nil || cfg.ShareName == "" {
		return nil
	}

	metadata := map[string]any{"proteomics_smb/share": cfg.ShareName}
	if cfg.InstrumentHost != "" {
		metadata["proteomics_smb/instrument"] = cfg.InstrumentHost
	}

	return map[string]any{"dest_coll_metadata": metadata}
}

// Cleanup has nothing to release; the share itself is external.
func (e *ProteomicsSMB) Cleanup(_ context.Context, _ *models.LandingZone) error {
	return nil
}
