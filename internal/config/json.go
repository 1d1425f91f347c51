package config

import (
	"encoding/json"
	"os"

	"github.com/quillnotes/notesync/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Values are
// copied into the runtime Config; empty strings and zero ints leave the
// existing value untouched.
type JsonConfig struct {
	DatabasePath        string `json:"database_path"`
	AttachmentDir       string `json:"attachment_dir"`
	OwnerID             string `json:"owner_id"`
	MergeStrategy       string `json:"merge_strategy"`
	TransferConcurrency int    `json:"transfer_concurrency"`
	S3Endpoint          string `json:"s3_endpoint"`
	S3Bucket            string `json:"s3_bucket"`
	S3Region            string `json:"s3_region"`
	S3AccessKey         string `json:"s3_access_key"`
	S3SecretKey         string `json:"s3_secret_key"`
	S3UsePathStyle      bool   `json:"s3_use_path_style"`
}

// parseJson overlays cfg with values loaded from the JSON file named by the
// -c/-config flag. No file, no overlay. Panics on read or unmarshal errors.
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

	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.AttachmentDir != "" {
		cfg.AttachmentDir = jc.AttachmentDir
	}
	if jc.OwnerID != "" {
		cfg.OwnerID = jc.OwnerID
	}
	if jc.MergeStrategy != "" {
		cfg.MergeStrategy = jc.MergeStrategy
	}
	if jc.TransferConcurrency > 0 {
		cfg.TransferConcurrency = jc.TransferConcurrency
	}
	if jc.S3Endpoint != "" {
		cfg.S3Endpoint = jc.S3Endpoint
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
	if jc.S3AccessKey != "" {
		cfg.S3AccessKey = jc.S3AccessKey
	}
	if jc.S3SecretKey != "" {
		cfg.S3SecretKey = jc.S3SecretKey
	}
	if jc.S3UsePathStyle {
		cfg.S3UsePathStyle = true
	}
}
