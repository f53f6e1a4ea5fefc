// Package rfq owns the RFQ records of both areas: identifier allocation,
// the free-form field hashes, and the per-record history log.
package rfq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"backend-ticketing/internal/helper"
	"backend-ticketing/internal/models"
	"backend-ticketing/internal/store"
)

var (
	ErrNotFound    = errors.New("rfq not found")
	ErrExists      = errors.New("rfq already exists")
	ErrInvalidArea = errors.New("invalid rfq area")
)

var rfqNoPatterns = map[string]*regexp.Regexp{
	models.AreaSystem: regexp.MustCompile(`^RFQ\(S\)-(\d+)$`),
	models.AreaMB:     regexp.MustCompile(`^RFQ\(M\)-(\d+)$`),
}

var rfqNoPrefixes = map[string]string{
	models.AreaSystem: "RFQ(S)-",
	models.AreaMB:     "RFQ(M)-",
}

type Manager struct {
	s *store.Store
}

func New(s *store.Store) *Manager {
	return &Manager{s: s}
}

// NextNo derives the next identifier from the identifiers that exist
// right now: parse each one against the area pattern, take max+1, pad to
// three digits. Nothing is reserved by the scan; a number freed by reset
// can be reissued.
func (m *Manager) NextNo(ctx context.Context, area string) (string, error) {
	pattern, ok := rfqNoPatterns[area]
	if !ok {
		return "", ErrInvalidArea
	}

	ids, err := m.s.R.SMembers(ctx, store.RFQIndexKey(area)).Result()
	if err != nil {
		return "", err
	}

	maxNum := -1
	for _, id := range ids {
		match := pattern.FindStringSubmatch(id)
		if match == nil {
			continue
		}
		num, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if num > maxNum {
			maxNum = num
		}
	}
	return fmt.Sprintf("%s%03d", rfqNoPrefixes[area], maxNum+1), nil
}

// Create persists a new record. An explicit rfqNo skips allocation
// entirely and may introduce gaps or out-of-sequence values; duplicates
// are rejected by the existence check.
func (m *Manager) Create(ctx context.Context, area, rfqNo string) (string, error) {
	if !models.IsValidArea(area) {
		return "", ErrInvalidArea
	}

	rfqNo = strings.TrimSpace(rfqNo)
	if rfqNo == "" {
		allocated, err := m.NextNo(ctx, area)
		if err != nil {
			return "", err
		}
		rfqNo = allocated
	}

	key := store.RFQKey(area, rfqNo)
	exists, err := m.s.R.Exists(ctx, key).Result()
	if err != nil {
		return "", err
	}
	if exists > 0 {
		return "", ErrExists
	}

	now := helper.NowISO()
	if err := m.s.R.SAdd(ctx, store.RFQIndexKey(area), rfqNo).Err(); err != nil {
		return "", err
	}
	if err := m.s.R.HSet(ctx, key, map[string]interface{}{
		"rfqNo":          rfqNo,
		"workflowStatus": "new",
		"assignee":       "",
		"createdAt":      now,
		"updatedAt":      now,
		"source":         "manual",
	}).Err(); err != nil {
		return "", err
	}
	return rfqNo, nil
}

func (m *Manager) Get(ctx context.Context, area, rfqNo string) (models.RFQRecord, error) {
	if !models.IsValidArea(area) {
		return models.RFQRecord{}, ErrInvalidArea
	}
	data, err := m.s.R.HGetAll(ctx, store.RFQKey(area, rfqNo)).Result()
	if err != nil {
		return models.RFQRecord{}, err
	}
	if len(data) == 0 {
		return models.RFQRecord{}, ErrNotFound
	}
	return models.RFQFromHash(data), nil
}

// List returns the area's identifiers, sorted. With a status filter only
// identifiers whose workflowStatus matches are kept; a record without
// the field counts as "new".
func (m *Manager) List(ctx context.Context, area, status string) ([]string, error) {
	if !models.IsValidArea(area) {
		return nil, ErrInvalidArea
	}

	ids, err := m.s.R.SMembers(ctx, store.RFQIndexKey(area)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	if status == "" {
		return ids, nil
	}

	filtered := make([]string, 0, len(ids))
	for _, id := range ids {
		ws, err := m.s.R.HGet(ctx, store.RFQKey(area, id), "workflowStatus").Result()
		if err != nil {
			ws = ""
		}
		if ws == "" {
			ws = "new"
		}
		if ws == status {
			filtered = append(filtered, id)
		}
	}
	return filtered, nil
}

// Patch merges the supplied fields into the record, last write wins per
// field. createdAt is never overwritten; updatedAt is always bumped. The
// patch is mirrored into the history list best-effort: a failed append is
// logged and the patch still succeeds.
func (m *Manager) Patch(ctx context.Context, area, rfqNo string, updates map[string]string) error {
	if !models.IsValidArea(area) {
		return ErrInvalidArea
	}

	key := store.RFQKey(area, rfqNo)
	exists, err := m.s.R.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	now := helper.NowISO()
	fields := map[string]interface{}{"updatedAt": now}
	for k, v := range updates {
		if k == "" || k == "createdAt" {
			continue
		}
		fields[k] = v
	}
	if err := m.s.R.HSet(ctx, key, fields).Err(); err != nil {
		return err
	}

	entry, err := json.Marshal(models.HistoryEntry{Ts: now, Updates: updates})
	if err == nil {
		err = m.s.R.LPush(ctx, store.RFQHistoryKey(area, rfqNo), entry).Err()
	}
	if err != nil {
		log.Printf("[rfq] history push failed for %s/%s: %v", area, rfqNo, err)
	}
	return nil
}

// History returns the record's patch log, newest first.
func (m *Manager) History(ctx context.Context, area, rfqNo string) ([]models.HistoryEntry, error) {
	if !models.IsValidArea(area) {
		return nil, ErrInvalidArea
	}
	raw, err := m.s.R.LRange(ctx, store.RFQHistoryKey(area, rfqNo), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]models.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry models.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Reset removes every record, history list and the id set of both areas.
func (m *Manager) Reset(ctx context.Context) error {
	for _, area := range []string{models.AreaSystem, models.AreaMB} {
		ids, err := m.s.R.SMembers(ctx, store.RFQIndexKey(area)).Result()
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(ids)*2+1)
		for _, id := range ids {
			keys = append(keys, store.RFQKey(area, id), store.RFQHistoryKey(area, id))
		}
		keys = append(keys, store.RFQIndexKey(area))
		if err := m.s.R.Del(ctx, keys...).Err(); err != nil {
			return err
		}
	}
	return nil
}
