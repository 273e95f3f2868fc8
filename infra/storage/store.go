// Package storage keeps a queryable history of executed trades in SQLite.
// This is diagnostics storage for emitted events, not book persistence: the
// engine never reads it back to rebuild state.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wguffey/hft-order-engine/domain/orderbook"
)

// TradeRecord is the persisted form of a trade. TradeID is only unique per
// symbol, so rows get their own key.
type TradeRecord struct {
	ID           uint64 `gorm:"primaryKey"`
	TradeID      uint64 `gorm:"index:idx_symbol_trade"`
	Symbol       string `gorm:"index:idx_symbol_trade"`
	Price        int64
	Quantity     uint64
	MakerOrderID uint64
	TakerOrderID uint64
	Timestamp    int64
	CreatedAt    time.Time
}

type Store struct {
	db *gorm.DB
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open trade store: %w", err)
	}

	if err := db.AutoMigrate(&TradeRecord{}); err != nil {
		return nil, fmt.Errorf("migrate trade store: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveTrade appends one executed trade.
func (s *Store) SaveTrade(t orderbook.Trade) error {
	rec := TradeRecord{
		TradeID:      t.ID,
		Symbol:       t.Symbol,
		Price:        t.Price,
		Quantity:     t.Quantity,
		MakerOrderID: t.MakerOrderID,
		TakerOrderID: t.TakerOrderID,
		Timestamp:    t.Timestamp,
	}
	return s.db.Create(&rec).Error
}

// RecentTrades returns the most recent trades for symbol, newest first.
func (s *Store) RecentTrades(symbol string, limit int) ([]TradeRecord, error) {
	var out []TradeRecord
	err := s.db.
		Where("symbol = ?", symbol).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Count returns the number of stored trades for symbol.
func (s *Store) Count(symbol string) (int64, error) {
	var n int64
	err := s.db.Model(&TradeRecord{}).Where("symbol = ?", symbol).Count(&n).Error
	return n, err
}
