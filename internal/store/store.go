// Package store keeps the history of settled rounds and finished games in
// Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/autobattler-backend/internal/match"
)

const uniqueViolation = "23505"

// RoundRecord is one settled matchup. A (game, round, match) triple is
// recorded at most once.
type RoundRecord struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	GameCode   string    `gorm:"size:16;not null;uniqueIndex:idx_round_matchup" json:"game_code"`
	Round      int       `gorm:"not null;uniqueIndex:idx_round_matchup" json:"round"`
	MatchID    string    `gorm:"size:32;not null;uniqueIndex:idx_round_matchup" json:"match_id"`
	Winners    []string  `gorm:"serializer:json" json:"winners"`
	Losers     []string  `gorm:"serializer:json" json:"losers"`
	Draw       bool      `json:"draw"`
	TimedOut   bool      `json:"timed_out"`
	Damage     int       `json:"damage"`
	Survivors  int       `json:"survivors"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

type GameRecord struct {
	Code       string    `gorm:"primaryKey;size:16" json:"code"`
	Winner     string    `gorm:"size:64;not null" json:"winner"`
	Rounds     int       `json:"rounds"`
	FinishedAt time.Time `gorm:"autoCreateTime" json:"finished_at"`
}

type Recorder interface {
	RecordRound(ctx context.Context, res match.RoundResult) error
	RecordWinner(ctx context.Context, code, winner string, rounds int) error
	ListRounds(ctx context.Context, code string) ([]RoundRecord, error)
}

func NewRoundRecord(res match.RoundResult) RoundRecord {
	return RoundRecord{
		GameCode:   res.Code,
		Round:      res.Round,
		MatchID:    res.MatchID,
		Winners:    res.Winners,
		Losers:     res.Losers,
		Draw:       res.Draw,
		TimedOut:   res.TimedOut,
		Damage:     res.Damage,
		Survivors:  res.Survivors,
		DurationMS: res.Duration.Milliseconds(),
	}
}

type GormRecorder struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open connects to Postgres and migrates the history tables.
func Open(dsn string, log *zap.Logger) (*GormRecorder, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&RoundRecord{}, &GameRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return NewGormRecorder(db, log), nil
}

func NewGormRecorder(db *gorm.DB, log *zap.Logger) *GormRecorder {
	return &GormRecorder{db: db, log: log.Named("store")}
}

func (r *GormRecorder) RecordRound(ctx context.Context, res match.RoundResult) error {
	rec := NewRoundRecord(res)
	err := r.db.WithContext(ctx).Create(&rec).Error
	switch {
	case isDuplicate(err):
		r.log.Debug("round already recorded",
			zap.String("code", res.Code),
			zap.Int("round", res.Round),
			zap.String("match_id", res.MatchID))
		return nil
	case err != nil:
		return fmt.Errorf("record round %s/%d/%s: %w", res.Code, res.Round, res.MatchID, err)
	}
	return nil
}

func (r *GormRecorder) RecordWinner(ctx context.Context, code, winner string, rounds int) error {
	err := r.db.WithContext(ctx).Create(&GameRecord{Code: code, Winner: winner, Rounds: rounds}).Error
	switch {
	case isDuplicate(err):
		r.log.Debug("winner already recorded", zap.String("code", code))
		return nil
	case err != nil:
		return fmt.Errorf("record winner %s: %w", code, err)
	}
	return nil
}

func (r *GormRecorder) ListRounds(ctx context.Context, code string) ([]RoundRecord, error) {
	var out []RoundRecord
	err := r.db.WithContext(ctx).
		Where("game_code = ?", code).
		Order("round, match_id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list rounds %s: %w", code, err)
	}
	return out, nil
}

// Close releases the connection pool.
func (r *GormRecorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// NopRecorder stands in when no database is configured.
type NopRecorder struct{}

func (NopRecorder) RecordRound(context.Context, match.RoundResult) error { return nil }
func (NopRecorder) RecordWinner(context.Context, string, string, int) error {
	return nil
}
func (NopRecorder) ListRounds(context.Context, string) ([]RoundRecord, error) { return nil, nil }
