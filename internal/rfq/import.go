package rfq

import (
	"context"
	"io"
	"strings"

	"backend-ticketing/internal/excel"
	"backend-ticketing/internal/helper"
	"backend-ticketing/internal/models"
	"backend-ticketing/internal/store"
)

// Sheet names recognized by the importer; any other sheet (Flow, notes,
// ...) is ignored.
var importAreaBySheet = map[string]string{
	"System RFQ": models.AreaSystem,
	"MB RFQ":     models.AreaMB,
}

const rfqNoHeader = "RFQ No."

// Header candidates for the workflow status column, most specific first.
var statusHeaders = []string{
	"RFQ Status",
	"Status",
	"RFQ Sta",
	"PM Status Update",
	"RFQ Status\r\n(下拉選單)",
}

// Import upserts every recognized sheet row by row. Row 1 is a formatted
// banner, row 2 holds the field names, data starts at row 3. Rows are
// committed one at a time: a failure partway leaves earlier rows in
// place.
func (m *Manager) Import(ctx context.Context, r io.Reader) (models.ImportStats, error) {
	var stats models.ImportStats

	sheets, err := excel.Read(r)
	if err != nil {
		return stats, err
	}

	for sheetName, rows := range sheets {
		area, ok := importAreaBySheet[sheetName]
		if !ok {
			continue
		}
		// Need banner, headers and at least one data row
		if len(rows) < 3 {
			continue
		}

		headers := make([]string, len(rows[1]))
		for i, h := range rows[1] {
			headers[i] = strings.TrimSpace(h)
		}

		rfqNoIdx := -1
		for i, h := range headers {
			if h == rfqNoHeader {
				rfqNoIdx = i
				break
			}
		}
		if rfqNoIdx == -1 {
			continue
		}
		statusIdx := findStatusColumn(headers)

		areaStats := stats.Area(area)
		for _, row := range rows[2:] {
			if len(row) == 0 {
				continue
			}
			rfqNo := strings.TrimSpace(cellAt(row, rfqNoIdx))
			if rfqNo == "" {
				areaStats.Skipped++
				continue
			}
			if err := m.upsertImported(ctx, area, rfqNo, headers, row, statusIdx, areaStats); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

func (m *Manager) upsertImported(ctx context.Context, area, rfqNo string, headers, row []string, statusIdx int, areaStats *models.ImportAreaStats) error {
	key := store.RFQKey(area, rfqNo)
	exists, err := m.s.R.Exists(ctx, key).Result()
	if err != nil {
		return err
	}

	current := map[string]string{}
	if exists > 0 {
		current, err = m.s.R.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
	}

	now := helper.NowISO()
	createdAt := current["createdAt"]
	if createdAt == "" {
		createdAt = now
	}

	statusFromSheet := ""
	if statusIdx >= 0 {
		statusFromSheet = strings.TrimSpace(cellAt(row, statusIdx))
	}
	workflowStatus := statusFromSheet
	if workflowStatus == "" {
		workflowStatus = current["workflowStatus"]
	}
	if workflowStatus == "" {
		workflowStatus = "new"
	}

	// Every sheet column overwrites, except the preserved fields below
	fields := map[string]interface{}{}
	for i, h := range headers {
		if h == "" {
			continue
		}
		fields[h] = cellAt(row, i)
	}
	fields["rfqNo"] = rfqNo
	fields["workflowStatus"] = workflowStatus
	fields["assignee"] = current["assignee"]
	fields["createdAt"] = createdAt
	fields["updatedAt"] = now
	fields["source"] = "excel"

	if err := m.s.R.SAdd(ctx, store.RFQIndexKey(area), rfqNo).Err(); err != nil {
		return err
	}
	if err := m.s.R.HSet(ctx, key, fields).Err(); err != nil {
		return err
	}

	if exists > 0 {
		areaStats.Updated++
	} else {
		areaStats.Created++
	}
	return nil
}

func findStatusColumn(headers []string) int {
	for _, candidate := range statusHeaders {
		for i, h := range headers {
			if h == "" {
				continue
			}
			if strings.Contains(h, candidate) || strings.Contains(candidate, h) {
				return i
			}
		}
	}
	// Fall back to the first column, which holds the status in the
	// source workbooks
	return 0
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
