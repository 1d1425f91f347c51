package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "notes.db", cfg.DatabasePath)
	assert.Equal(t, "attachments", cfg.AttachmentDir)
	assert.Equal(t, "keep_newer", cfg.MergeStrategy)
	assert.Equal(t, 4, cfg.TransferConcurrency)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.Empty(t, cfg.OwnerID)
}
