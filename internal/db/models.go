package db

import "time"

// SignedTxRecord persists one completed mix round's broadcast
// transaction, keyed by hash so a duplicate dstx relay is recognized
// instead of resubmitted after a restart.
type SignedTxRecord struct {
	ID          uint   `gorm:"primaryKey"`
	TxHash      string `gorm:"uniqueIndex;size:64"`
	RawTx       []byte
	BroadcastAt time.Time
}

func (SignedTxRecord) TableName() string {
	return "signed_txs"
}

// RegistryEntryRecord persists one registered coordinator, so the
// in-memory registry can be rehydrated without re-scanning the chain
// on every restart.
type RegistryEntryRecord struct {
	ID                 uint   `gorm:"primaryKey"`
	CollateralTxHash   string `gorm:"uniqueIndex:idx_registry_outpoint;size:64"`
	CollateralVout     uint32 `gorm:"uniqueIndex:idx_registry_outpoint"`
	OperatorPubKeyHex  string `gorm:"size:66"`
}

func (RegistryEntryRecord) TableName() string {
	return "registry_entries"
}
