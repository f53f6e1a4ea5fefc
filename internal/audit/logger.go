// Package audit is the append-only action log. Writes are best-effort by
// policy: a failed audit write never fails the operation that triggered
// it.
package audit

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"backend-ticketing/internal/models"
	"backend-ticketing/internal/store"
)

const retention = 60 * 24 * time.Hour

type Logger struct {
	s *store.Store
}

func New(s *store.Store) *Logger {
	return &Logger{s: s}
}

// Add appends one entry scored by epoch milliseconds and prunes anything
// older than the retention window.
func (l *Logger) Add(ctx context.Context, entry models.LogEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	now := time.Now()
	score := float64(now.UnixMilli())
	if err := l.s.R.ZAdd(ctx, store.KeyLogs, redis.Z{Score: score, Member: payload}).Err(); err != nil {
		return err
	}

	cutoff := now.Add(-retention).UnixMilli()
	return l.s.R.ZRemRangeByScore(ctx, store.KeyLogs, "0", strconv.FormatInt(cutoff, 10)).Err()
}

// Try is the fire-and-forget form used by every handler: failures are
// logged server-side and swallowed.
func (l *Logger) Try(ctx context.Context, entry models.LogEntry) {
	if err := l.Add(ctx, entry); err != nil {
		log.Printf("[audit] write failed: %v", err)
	}
}

// Recent returns up to limit entries, newest first. Entries that no
// longer parse are skipped.
func (l *Logger) Recent(ctx context.Context, limit int) ([]models.LogEntry, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 2000 {
		limit = 2000
	}

	raw, err := l.s.R.ZRevRange(ctx, store.KeyLogs, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]models.LogEntry, 0, len(raw))
	for _, item := range raw {
		var entry models.LogEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (l *Logger) Count(ctx context.Context) (int64, error) {
	return l.s.R.ZCard(ctx, store.KeyLogs).Result()
}

