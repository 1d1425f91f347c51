package config

import (
	"flag"
	"os"

	"github.com/quillnotes/notesync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d string   sqlite database path
//	-o string   owner id to sync
//	-b string   S3 bucket holding the remote snapshot
//	-s string   merge strategy name
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-o", "-b", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "sqlite database path")
	fs.StringVar(&cfg.OwnerID, "o", cfg.OwnerID, "owner id to sync")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket for the remote snapshot")
	fs.StringVar(&cfg.MergeStrategy, "s", cfg.MergeStrategy, "merge strategy")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
