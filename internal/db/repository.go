package db

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// MixRepository wraps the mixing sqlite file with its own mutex, the
// same one-lock-per-store discipline internal/state applies to each of
// its gorm-backed tables.
type MixRepository struct {
	mu sync.Mutex
	db *DatabaseManager
}

func NewMixRepository(dm *DatabaseManager) *MixRepository {
	return &MixRepository{db: dm}
}

// SaveSignedTx upserts a broadcast transaction record.
func (r *MixRepository) SaveSignedTx(rec SignedTxRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.GetMixDB().Where("tx_hash = ?", rec.TxHash).FirstOrCreate(&rec).Error; err != nil {
		log.Errorf("MixRepository SaveSignedTx failed: %v", err)
		return err
	}
	return nil
}

// ListSignedTxs returns every persisted broadcast record, used to
// rehydrate the in-memory journal on startup.
func (r *MixRepository) ListSignedTxs() ([]SignedTxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var recs []SignedTxRecord
	if err := r.db.GetMixDB().Find(&recs).Error; err != nil {
		log.Errorf("MixRepository ListSignedTxs failed: %v", err)
		return nil, err
	}
	return recs, nil
}

// SaveRegistryEntry upserts a registered coordinator record.
func (r *MixRepository) SaveRegistryEntry(rec RegistryEntryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.GetMixDB().
		Where("collateral_tx_hash = ? AND collateral_vout = ?", rec.CollateralTxHash, rec.CollateralVout).
		FirstOrCreate(&rec).Error; err != nil {
		log.Errorf("MixRepository SaveRegistryEntry failed: %v", err)
		return err
	}
	return nil
}

// ListRegistryEntries returns every persisted coordinator record.
func (r *MixRepository) ListRegistryEntries() ([]RegistryEntryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var recs []RegistryEntryRecord
	if err := r.db.GetMixDB().Find(&recs).Error; err != nil {
		log.Errorf("MixRepository ListRegistryEntries failed: %v", err)
		return nil, err
	}
	return recs, nil
}
