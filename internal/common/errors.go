// Package common holds sentinel errors shared across repositories and
// services.
package common

import "errors"

var (

	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// orchestrator specific errors
	ErrorSyncInProgress = errors.New("sync already in progress")
	ErrorNoOwner        = errors.New("no owner id")

	// remote store specific errors
	ErrorAuthFailed   = errors.New("remote authentication failed")
	ErrorHashMismatch = errors.New("content hash mismatch")
)
