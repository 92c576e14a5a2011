package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/soft_delete"
)

// Variable is one global variable row
type Variable struct {
	ID        int64  `gorm:"primaryKey"`
	ServerID  string `gorm:"index:idx_server_name,unique"`
	Name      string `gorm:"index:idx_server_name,unique"`
	Value     string
	UpdatedAt int64
	/* 0 false 1 true */
	Deleted soft_delete.DeletedAt `gorm:"softDelete:flag;default:0"`
}

func (Variable) TableName() string {
	return "variables"
}

// SQL stores global variables in a SQLite database through gorm
type SQL struct {
	mu sync.Mutex
	db *gorm.DB
}

// OpenSQL opens (or creates) a SQLite store at path. ":memory:" keeps the
// database in memory.
func OpenSQL(path string) (*SQL, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".praxis", "globals.db")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	if err := db.AutoMigrate(&Variable{}); err != nil {
		return nil, fmt.Errorf("failed to migrate store database: %w", err)
	}

	log.Debugf("opened sqlite store at %s", path)
	return &SQL{db: db}, nil
}

func (s *SQL) Get(ctx context.Context, serverID, name string) (string, bool, error) {
	var v Variable
	err := s.db.WithContext(ctx).
		Where("server_id = ? AND name = ?", serverID, name).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store read error: %w", err)
	}
	return v.Value, true, nil
}

func (s *SQL) Upsert(ctx context.Context, serverID, name, value string) error {
	if err := validateKey(serverID, name); err != nil {
		return err
	}
	return upsertRow(s.db.WithContext(ctx), serverID, name, value)
}

func (s *SQL) Update(ctx context.Context, serverID, name string, fn UpdateFunc) (string, error) {
	if err := validateKey(serverID, name); err != nil {
		return "", err
	}

	// SQLite has no row locks; the mutex serializes writers in this process
	s.mu.Lock()
	defer s.mu.Unlock()

	var result string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v Variable
		err := tx.Where("server_id = ? AND name = ?", serverID, name).First(&v).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		value, err := fn(v.Value, found)
		if err != nil {
			result = v.Value
			return err
		}
		result = value
		return upsertRow(tx, serverID, name, value)
	})
	return result, err
}

func (s *SQL) List(ctx context.Context, serverID string) (map[string]string, error) {
	var rows []Variable
	if err := s.db.WithContext(ctx).
		Where("server_id = ?", serverID).
		Order("name").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store read error: %w", err)
	}

	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Name] = r.Value
	}
	return out, nil
}

func (s *SQL) Delete(ctx context.Context, serverID, name string) error {
	if err := s.db.WithContext(ctx).
		Where("server_id = ? AND name = ?", serverID, name).
		Delete(&Variable{}).Error; err != nil {
		return fmt.Errorf("store delete error: %w", err)
	}
	return nil
}

// Compact purges soft-deleted rows and vacuums the database file
func (s *SQL) Compact(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Unscoped().Where("deleted = ?", 1).Delete(&Variable{}).Error; err != nil {
		return fmt.Errorf("store compact error: %w", err)
	}
	return db.Exec("VACUUM").Error
}

func (s *SQL) Stats(ctx context.Context) (Stats, error) {
	var cnt int64
	if err := s.db.WithContext(ctx).Model(&Variable{}).Count(&cnt).Error; err != nil {
		return Stats{}, err
	}
	return Stats{Backend: BackendSQLite, Keys: int(cnt)}, nil
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func upsertRow(db *gorm.DB, serverID, name, value string) error {
	row := Variable{ServerID: serverID, Name: name, Value: value, UpdatedAt: time.Now().Unix()}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "server_id"}, {Name: "name"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      value,
			"updated_at": row.UpdatedAt,
			"deleted":    0,
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("store write error: %w", err)
	}
	return nil
}
