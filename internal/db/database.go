package db

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/privasend/coordinator/internal/config"
)

// DatabaseManager owns the coordinator's persistent store. Unlike the
// relayer this was grounded on, a coordinator keeps a single sqlite
// file, mixing.db, holding two tables: the transactions it has already
// broadcast, so a duplicate dstx relay is recognized rather than
// resubmitted, and a durable cache of registered coordinators.
type DatabaseManager struct {
	mixDb *gorm.DB
}

func NewDatabaseManager() *DatabaseManager {
	dm := &DatabaseManager{}
	dm.initDB()
	return dm
}

func (dm *DatabaseManager) initDB() {
	dbDir := config.AppConfig.DbDir
	if err := os.MkdirAll(dbDir, os.ModePerm); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	mixPath := filepath.Join(dbDir, "mixing.db")
	mixDb, err := gorm.Open(sqlite.Open(mixPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to connect to mixing database: %v", err)
	}
	dm.mixDb = mixDb
	log.Debugf("mixing database connected successfully, path: %s", mixPath)

	dm.autoMigrate()
}

func (dm *DatabaseManager) autoMigrate() {
	if err := dm.mixDb.AutoMigrate(&SignedTxRecord{}, &RegistryEntryRecord{}); err != nil {
		log.Fatalf("Failed to migrate mixing database: %v", err)
	}
}

func (dm *DatabaseManager) GetMixDB() *gorm.DB {
	return dm.mixDb
}
