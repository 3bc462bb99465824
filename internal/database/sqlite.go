package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/muratoffalex/ytscribe/internal/config"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/transcript"
	_ "modernc.org/sqlite"
)

const (
	lockRetries      = 3
	defaultRecentMax = 100
)

type sqliteDB struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSQLiteDB(cfg config.DatabaseConfig, log logger.Logger) (Database, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{
		"DSN": cfg.DSN,
	}).Debug("Database opened")

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := RunMigrations(context.Background(), db, log); err != nil {
		db.Close()
		return nil, err
	}

	log.WithFields(logger.Fields{
		"DSN": cfg.DSN,
	}).Debug("Database alive")

	return &sqliteDB{db: db, logger: log}, nil
}

func (s *sqliteDB) Close() error {
	return s.db.Close()
}

func (s *sqliteDB) ExecWithRetry(ctx context.Context, query string, args ...any) (int64, error) {
	var affected int64
	err := s.withRetry(ctx, query, func() error {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

func (s *sqliteDB) withRetry(ctx context.Context, query string, fn func() error) error {
	var err error
	for i := range lockRetries {
		err = fn()
		if err == nil || !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		s.logger.WithFields(logger.Fields{
			"attempt": i + 1,
			"query":   query,
			"error":   err.Error(),
		}).Warn("Database locked, retrying...")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond * time.Duration(i+1)):
		}
	}
	return err
}

const insertAttempt = `
	INSERT INTO attempts (request_id, video_id, strategy, step, succeeded, kind, error, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// RecordAttempts stores a run's attempts and their steps in one transaction.
func (s *sqliteDB) RecordAttempts(ctx context.Context, requestID, videoID string, attempts []transcript.Attempt) error {
	records := recordsFor(requestID, videoID, attempts)
	if len(records) == 0 {
		return nil
	}

	return s.withRetry(ctx, insertAttempt, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, insertAttempt)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range records {
			if _, err := stmt.ExecContext(ctx,
				r.RequestID, r.VideoID, r.Strategy, r.Step, r.Succeeded, r.Kind, r.Error, r.DurationMs,
			); err != nil {
				return fmt.Errorf("failed to insert attempt: %w", err)
			}
		}
		return tx.Commit()
	})
}

// RecentAttempts returns the newest rows for a video, newest first.
func (s *sqliteDB) RecentAttempts(ctx context.Context, videoID string, limit int) ([]AttemptRecord, error) {
	if limit <= 0 || limit > defaultRecentMax {
		limit = defaultRecentMax
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, video_id, strategy, step, succeeded, kind, error, duration_ms, created_at
		FROM attempts
		WHERE video_id = ?
		ORDER BY id DESC
		LIMIT ?`, videoID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var records []AttemptRecord
	for rows.Next() {
		var r AttemptRecord
		if err := rows.Scan(
			&r.ID, &r.RequestID, &r.VideoID, &r.Strategy, &r.Step,
			&r.Succeeded, &r.Kind, &r.Error, &r.DurationMs, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return records, nil
}

func (s *sqliteDB) PurgeOldAttempts(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	return s.ExecWithRetry(ctx,
		"DELETE FROM attempts WHERE created_at < datetime('now', ?)",
		fmt.Sprintf("-%d days", retentionDays),
	)
}
