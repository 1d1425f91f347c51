package models

// TombstoneStatus is the sync lifecycle of a deletion marker.
type TombstoneStatus string

const (
	TombstonePending TombstoneStatus = "pending"
	TombstoneSynced  TombstoneStatus = "synced"
)

// Tombstone records that a row was deleted locally. It outlives the row so a
// stale remote copy cannot resurrect it. Immutable except for the
// pending -> synced transition.
type Tombstone struct {
	ID         string          `json:"id"`
	TableName  string          `json:"tableName"`
	RecordID   string          `json:"recordId"`
	OwnerID    string          `json:"ownerId"`
	DeletedAt  int64           `json:"deletedAt"`
	SyncStatus TombstoneStatus `json:"syncStatus"`
}
