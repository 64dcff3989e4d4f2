// Package config assembles the CLI runtime settings from defaults, an
// optional JSON file and command-line flags, in that order of precedence.
package config

// Config holds runtime settings for the CypherShare CLI.
type Config struct {
	// StoreURL is the base URL of the content-addressed store node.
	StoreURL string

	// RelayKind selects the announcement transport: "waku", "redis",
	// "kafka" or "inmemory".
	RelayKind string

	// RelayAddr is the transport endpoint: REST base URL for waku,
	// host:port for redis and kafka. Unused for inmemory.
	RelayAddr string

	// RoomID names the shared room whose announcement topic this client
	// joins.
	RoomID string

	// CohortURL is the threshold cohort service endpoint. Empty selects the
	// built-in local cohort.
	CohortURL string

	// VerifierURL is the email proof verifier endpoint.
	VerifierURL string

	// PayoutAddress is the wallet address proof rewards are claimed for.
	PayoutAddress string

	// VerifierSecret signs the bearer tokens sent to the verifier.
	VerifierSecret string

	// DataDir holds the local database and downloaded files.
	DataDir string

	// EnginePath points at the WebAssembly computation engine binary.
	EnginePath string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.StoreURL = "http://127.0.0.1:8787"
	c.RelayKind = "waku"
	c.RelayAddr = "http://127.0.0.1:8645"
	c.RoomID = "default"
	c.VerifierURL = "http://127.0.0.1:8989"
	c.DataDir = "./cyphershare-data"
	c.EnginePath = "./engine.wasm"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
