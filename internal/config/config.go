// Package config holds runtime settings for the sync CLI and the layered
// loader: defaults, then JSON file, then command-line flags. Later sources
// take precedence over earlier ones.
package config

// Config holds runtime settings for notesync.
type Config struct {
	// DatabasePath is the sqlite file holding the local record store.
	DatabasePath string

	// AttachmentDir is the base directory of the content-addressed
	// attachment cache.
	AttachmentDir string

	// OwnerID selects whose records this device syncs.
	OwnerID string

	// MergeStrategy names the conflict-resolution strategy
	// (keep_local, keep_remote, keep_newer, merge_smart).
	MergeStrategy string

	// TransferConcurrency bounds parallel attachment transfers in one phase.
	TransferConcurrency int

	// S3 settings for the remote blob store. Endpoint is only needed for
	// S3-compatible services (MinIO etc.).
	S3Endpoint     string
	S3Bucket       string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "notes.db"
	c.AttachmentDir = "attachments"
	c.MergeStrategy = "keep_newer"
	c.TransferConcurrency = 4
	c.S3Region = "us-east-1"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
