// Package history archives finished rounds. Nothing is ever read back into a
// live room.
package history

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Recorder interface {
	RecordRound(ctx context.Context, res Result) error
}

type Result struct {
	RoomCode  string
	Round     int
	StartedAt time.Time
	EndedAt   time.Time
	Winner    *PlayerResult
	Players   []PlayerResult
	Domains   int
}

type PlayerResult struct {
	Name  string
	Color string
	Score int
}

// Nop drops every result. It is used when no database is configured.
type Nop struct{}

func (Nop) RecordRound(context.Context, Result) error { return nil }

type RoundRecord struct {
	ID          uint   `gorm:"primaryKey"`
	RoomCode    string `gorm:"size:6;index"`
	Round       int
	StartedAt   time.Time
	EndedAt     time.Time
	WinnerName  string
	WinnerScore int
	WinnerColor string `gorm:"size:7"`
	Domains     int
	Scores      []ScoreRecord `gorm:"foreignKey:RoundID;constraint:OnDelete:CASCADE"`
}

type ScoreRecord struct {
	ID      uint `gorm:"primaryKey"`
	RoundID uint `gorm:"index"`
	Name    string
	Color   string `gorm:"size:7"`
	Score   int
}

type Store struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the archive tables.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewStore(db)
}

func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&RoundRecord{}, &ScoreRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate round archive: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) RecordRound(ctx context.Context, res Result) error {
	rec := newRoundRecord(res)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("archive round %s#%d: %w", res.RoomCode, res.Round, err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newRoundRecord(res Result) RoundRecord {
	rec := RoundRecord{
		RoomCode:  res.RoomCode,
		Round:     res.Round,
		StartedAt: res.StartedAt,
		EndedAt:   res.EndedAt,
		Domains:   res.Domains,
	}
	if res.Winner != nil {
		rec.WinnerName = res.Winner.Name
		rec.WinnerScore = res.Winner.Score
		rec.WinnerColor = res.Winner.Color
	}
	for _, p := range res.Players {
		rec.Scores = append(rec.Scores, ScoreRecord{Name: p.Name, Color: p.Color, Score: p.Score})
	}
	return rec
}
