package config

import (
	"encoding/json"
	"os"

	"github.com/interestIngc/cyphershare/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	EndpointAddr   *string `json:"endpoint_addr"`
	NodeID         *string `json:"node_id"`
	Backend        *string `json:"backend"`
	DataDir        *string `json:"data_dir"`
	DatabaseDSN    *string `json:"database_dsn"`
	S3Bucket       *string `json:"s3_bucket"`
	S3Region       *string `json:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`
	S3RootUser     *string `json:"s3_root_user"`
	S3RootPassword *string `json:"s3_root_password"`
	MaxBlobBytes   *int64  `json:"max_blob_bytes"`
}

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

	overlay := func(dst, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	overlay(&cfg.EndpointAddr, jc.EndpointAddr)
	overlay(&cfg.NodeID, jc.NodeID)
	overlay(&cfg.Backend, jc.Backend)
	overlay(&cfg.DataDir, jc.DataDir)
	overlay(&cfg.DatabaseDSN, jc.DatabaseDSN)
	overlay(&cfg.S3Bucket, jc.S3Bucket)
	overlay(&cfg.S3Region, jc.S3Region)
	overlay(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	overlay(&cfg.S3RootUser, jc.S3RootUser)
	overlay(&cfg.S3RootPassword, jc.S3RootPassword)
	if jc.MaxBlobBytes != nil {
		cfg.MaxBlobBytes = *jc.MaxBlobBytes
	}
}
