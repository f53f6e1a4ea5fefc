package rfq

import (
	"bytes"
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend-ticketing/internal/excel"
	"backend-ticketing/internal/models"
	"backend-ticketing/internal/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(store.New(rdb))
}

func TestAllocatorSequence(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first, err := m.Create(ctx, models.AreaMB, "")
	require.NoError(t, err)
	assert.Equal(t, "RFQ(M)-000", first)

	second, err := m.Create(ctx, models.AreaMB, "")
	require.NoError(t, err)
	assert.Equal(t, "RFQ(M)-001", second)

	// Areas allocate independently
	sys, err := m.Create(ctx, models.AreaSystem, "")
	require.NoError(t, err)
	assert.Equal(t, "RFQ(S)-000", sys)
}

func TestAllocatorSkipsForeignIdentifiers(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, models.AreaMB, "LEGACY-999")
	require.NoError(t, err)
	_, err = m.Create(ctx, models.AreaMB, "RFQ(M)-007")
	require.NoError(t, err)

	next, err := m.Create(ctx, models.AreaMB, "")
	require.NoError(t, err)
	assert.Equal(t, "RFQ(M)-008", next)
}

func TestCreateDuplicateRejected(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, models.AreaSystem, "RFQ(S)-000")
	require.NoError(t, err)

	_, err = m.Create(ctx, models.AreaSystem, "RFQ(S)-000")
	assert.ErrorIs(t, err, ErrExists)

	_, err = m.Create(ctx, "warehouse", "")
	assert.ErrorIs(t, err, ErrInvalidArea)
}

func TestCreateDefaults(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	rfqNo, err := m.Create(ctx, models.AreaSystem, "")
	require.NoError(t, err)

	rec, err := m.Get(ctx, models.AreaSystem, rfqNo)
	require.NoError(t, err)
	assert.Equal(t, "new", rec.WorkflowStatus)
	assert.Equal(t, "manual", rec.Source)
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)
	assert.NotEmpty(t, rec.CreatedAt)
}

func TestPatchHistoryAndTimestamps(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	rfqNo, err := m.Create(ctx, models.AreaMB, "")
	require.NoError(t, err)
	created, err := m.Get(ctx, models.AreaMB, rfqNo)
	require.NoError(t, err)

	require.NoError(t, m.Patch(ctx, models.AreaMB, rfqNo, map[string]string{
		"workflowStatus": "processing",
	}))
	require.NoError(t, m.Patch(ctx, models.AreaMB, rfqNo, map[string]string{
		"assignee": "Alice",
	}))

	rec, err := m.Get(ctx, models.AreaMB, rfqNo)
	require.NoError(t, err)
	assert.Equal(t, "processing", rec.WorkflowStatus)
	assert.Equal(t, "Alice", rec.Assignee)
	assert.Equal(t, created.CreatedAt, rec.CreatedAt)
	assert.GreaterOrEqual(t, rec.UpdatedAt, created.UpdatedAt)

	history, err := m.History(ctx, models.AreaMB, rfqNo)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Newest first
	assert.Equal(t, "Alice", history[0].Updates["assignee"])
	assert.Equal(t, "processing", history[1].Updates["workflowStatus"])
}

func TestPatchNeverOverwritesCreatedAt(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	rfqNo, err := m.Create(ctx, models.AreaMB, "")
	require.NoError(t, err)
	created, err := m.Get(ctx, models.AreaMB, rfqNo)
	require.NoError(t, err)

	require.NoError(t, m.Patch(ctx, models.AreaMB, rfqNo, map[string]string{
		"createdAt": "1999-01-01T00:00:00.000Z",
		"pmReply":   "quoted",
	}))

	rec, err := m.Get(ctx, models.AreaMB, rfqNo)
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, rec.CreatedAt)
	assert.Equal(t, "quoted", rec.PMReply)
}

func TestPatchUnknownRecord(t *testing.T) {
	m := newTestManager(t)
	err := m.Patch(context.Background(), models.AreaSystem, "RFQ(S)-042", map[string]string{"assignee": "Bob"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListStatusFilter(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	a, err := m.Create(ctx, models.AreaSystem, "")
	require.NoError(t, err)
	b, err := m.Create(ctx, models.AreaSystem, "")
	require.NoError(t, err)
	require.NoError(t, m.Patch(ctx, models.AreaSystem, b, map[string]string{
		"workflowStatus": "done",
	}))

	all, err := m.List(ctx, models.AreaSystem, "")
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, all)

	fresh, err := m.List(ctx, models.AreaSystem, "new")
	require.NoError(t, err)
	assert.Equal(t, []string{a}, fresh)

	done, err := m.List(ctx, models.AreaSystem, "done")
	require.NoError(t, err)
	assert.Equal(t, []string{b}, done)
}

// importWorkbook builds an upload in the source layout: banner row,
// header row, then data.
func importWorkbook(t *testing.T, sheet string, headers []string, rows [][]string) *bytes.Reader {
	t.Helper()
	data, err := excel.Write([]excel.Sheet{{
		Name:   sheet,
		Header: []string{"formatted banner"},
		Rows:   append([][]string{headers}, rows...),
	}})
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestImportCreatesAndSkips(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	r := importWorkbook(t, "MB RFQ",
		[]string{"RFQ Status", "RFQ No.", "Customer"},
		[][]string{
			{"processing", "RFQ(M)-000", "Acme"},
			{"", "", "orphan row"},
		})

	stats, err := m.Import(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MB.Created)
	assert.Equal(t, 0, stats.MB.Updated)
	assert.Equal(t, 1, stats.MB.Skipped)

	rec, err := m.Get(ctx, models.AreaMB, "RFQ(M)-000")
	require.NoError(t, err)
	assert.Equal(t, "processing", rec.WorkflowStatus)
	assert.Equal(t, "excel", rec.Source)
	assert.Equal(t, "Acme", rec.Extra["Customer"])
}

func TestImportUpsertPreservesCreatedAtAndAssignee(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	rfqNo, err := m.Create(ctx, models.AreaSystem, "RFQ(S)-003")
	require.NoError(t, err)
	require.NoError(t, m.Patch(ctx, models.AreaSystem, rfqNo, map[string]string{
		"assignee":       "Alice",
		"workflowStatus": "processing",
	}))
	before, err := m.Get(ctx, models.AreaSystem, rfqNo)
	require.NoError(t, err)

	r := importWorkbook(t, "System RFQ",
		[]string{"Status", "RFQ No.", "Customer"},
		[][]string{{"", "RFQ(S)-003", "Globex"}})

	stats, err := m.Import(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.System.Updated)

	rec, err := m.Get(ctx, models.AreaSystem, rfqNo)
	require.NoError(t, err)
	assert.Equal(t, before.CreatedAt, rec.CreatedAt)
	assert.Equal(t, "Alice", rec.Assignee)
	// Empty sheet status keeps the existing one
	assert.Equal(t, "processing", rec.WorkflowStatus)
	assert.Equal(t, "Globex", rec.Extra["Customer"])
}

func TestImportIgnoresUnknownSheets(t *testing.T) {
	m := newTestManager(t)

	r := importWorkbook(t, "Flow",
		[]string{"RFQ No."},
		[][]string{{"RFQ(M)-000"}})

	stats, err := m.Import(context.Background(), r)
	require.NoError(t, err)
	assert.Zero(t, stats.MB.Created+stats.System.Created)
}

func TestExportSheets(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, models.AreaSystem, "")
	require.NoError(t, err)
	mbNo, err := m.Create(ctx, models.AreaMB, "")
	require.NoError(t, err)
	require.NoError(t, m.Patch(ctx, models.AreaMB, mbNo, map[string]string{
		"Customer": "Acme",
	}))

	sheets, err := m.ExportSheets(ctx)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.Equal(t, "System RFQ", sheets[0].Name)
	assert.Equal(t, "MB RFQ", sheets[1].Name)
	assert.Equal(t, "RFQ No.", sheets[0].Header[0])

	require.Len(t, sheets[1].Rows, 1)
	row := sheets[1].Rows[0]
	assert.Equal(t, mbNo, row[0])
	// The ad hoc Customer column lands in the preferred slot
	assert.Equal(t, "Acme", row[4])
}

func TestExportEmpty(t *testing.T) {
	m := newTestManager(t)
	sheets, err := m.ExportSheets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sheets)
}
