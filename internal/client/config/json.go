package config

import (
	"encoding/json"
	"os"

	"github.com/interestIngc/cyphershare/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent keys
// keep their current Config values.
type JsonConfig struct {
	StoreURL       *string `json:"store_url"`
	RelayKind      *string `json:"relay_kind"`
	RelayAddr      *string `json:"relay_addr"`
	RoomID         *string `json:"room_id"`
	CohortURL      *string `json:"cohort_url"`
	VerifierURL    *string `json:"verifier_url"`
	PayoutAddress  *string `json:"payout_address"`
	VerifierSecret *string `json:"verifier_secret"`
	DataDir        *string `json:"data_dir"`
	EnginePath     *string `json:"engine_path"`
}

// parseJson overlays Config with values from the JSON file named by the
// -c/-config flag. Panics on read or unmarshal errors; the file was asked
// for explicitly, so a broken one is fatal.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	overlay := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	overlay(&cfg.StoreURL, jc.StoreURL)
	overlay(&cfg.RelayKind, jc.RelayKind)
	overlay(&cfg.RelayAddr, jc.RelayAddr)
	overlay(&cfg.RoomID, jc.RoomID)
	overlay(&cfg.CohortURL, jc.CohortURL)
	overlay(&cfg.VerifierURL, jc.VerifierURL)
	overlay(&cfg.PayoutAddress, jc.PayoutAddress)
	overlay(&cfg.VerifierSecret, jc.VerifierSecret)
	overlay(&cfg.DataDir, jc.DataDir)
	overlay(&cfg.EnginePath, jc.EnginePath)
}
