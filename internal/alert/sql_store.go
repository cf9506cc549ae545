package alert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

type alertRecordModel struct {
	Key        string         `gorm:"column:alert_key;primaryKey"`
	Instrument string         `gorm:"column:instrument;index"`
	Strategy   string         `gorm:"column:strategy"`
	Setup      string         `gorm:"column:setup"`
	Entry      float64        `gorm:"column:entry"`
	Policy     string         `gorm:"column:policy"`
	SentAtUnix int64          `gorm:"column:sent_at;index"`
	Details    datatypes.JSON `gorm:"column:details;type:TEXT"`
}

func (alertRecordModel) TableName() string { return "alert_records" }

// SQLStore persists records in SQLite so the dedup window survives restarts.
// Rows older than ttl, relative to the newest write, are deleted on Put, and
// only the newest maxEntries rows by send time are kept.
type SQLStore struct {
	db         *gorm.DB
	ttl        time.Duration
	maxEntries int
}

var _ Store = (*SQLStore)(nil)

func NewSQLStore(path string, ttl time.Duration, maxEntries int) (*SQLStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("alert sql store: path is required")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("alert sql store: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&alertRecordModel{}); err != nil {
		return nil, fmt.Errorf("alert sql store: migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &SQLStore{db: db, ttl: ttl, maxEntries: maxEntries}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (Record, bool, error) {
	var row alertRecordModel
	err := s.db.WithContext(ctx).Where("alert_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return row.toRecord(), true, nil
}

func (s *SQLStore) Put(ctx context.Context, rec Record) error {
	details, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	row := alertRecordModel{
		Key:        rec.Key,
		Instrument: rec.Instrument,
		Strategy:   rec.Strategy,
		Setup:      rec.Setup,
		Entry:      rec.Entry,
		Policy:     string(rec.Policy),
		SentAtUnix: rec.SentAt.UnixMilli(),
		Details:    datatypes.JSON(details),
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "alert_key"}},
			UpdateAll: true,
		}).Create(&row).Error; err != nil {
			return err
		}
		if s.ttl > 0 {
			cutoff := rec.SentAt.Add(-s.ttl).UnixMilli()
			if err := tx.Where("sent_at < ?", cutoff).Delete(&alertRecordModel{}).Error; err != nil {
				return err
			}
		}
		newest := tx.Model(&alertRecordModel{}).Select("alert_key").Order("sent_at desc").Order("alert_key").Limit(s.maxEntries)
		return tx.Where("alert_key NOT IN (?)", newest).Delete(&alertRecordModel{}).Error
	})
}

func (s *SQLStore) List(ctx context.Context, limit int) ([]Record, error) {
	q := s.db.WithContext(ctx).Order("sent_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []alertRecordModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toRecord())
	}
	return out, nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (m alertRecordModel) toRecord() Record {
	return Record{
		Key:        m.Key,
		Instrument: m.Instrument,
		Strategy:   m.Strategy,
		Setup:      m.Setup,
		Entry:      m.Entry,
		Policy:     Policy(m.Policy),
		SentAt:     time.UnixMilli(m.SentAtUnix).UTC(),
	}
}
