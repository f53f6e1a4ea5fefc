package rfq

import (
	"context"
	"sort"

	"backend-ticketing/internal/excel"
	"backend-ticketing/internal/models"
)

// Preferred export column order; every remaining ad hoc column follows,
// sorted.
var exportPreferredColumns = []string{
	"RFQ No.",
	"workflowStatus",
	"assignee",
	"Assigned PM",
	"Customer",
	"Sales",
	"createdAt",
	"updatedAt",
	"salesReply",
	"salesReplyDate",
	"pmReply",
	"pmReplyDate",
	"source",
}

var exportSheetNames = map[string]string{
	models.AreaSystem: "System RFQ",
	models.AreaMB:     "MB RFQ",
}

// ExportSheets builds one sheet per non-empty area. Returns no sheets
// when both areas are empty.
func (m *Manager) ExportSheets(ctx context.Context) ([]excel.Sheet, error) {
	var sheets []excel.Sheet
	for _, area := range []string{models.AreaSystem, models.AreaMB} {
		records, err := m.allRecords(ctx, area)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			continue
		}
		sheets = append(sheets, buildAreaSheet(exportSheetNames[area], records))
	}
	return sheets, nil
}

func (m *Manager) allRecords(ctx context.Context, area string) ([]models.RFQRecord, error) {
	ids, err := m.List(ctx, area, "")
	if err != nil {
		return nil, err
	}
	records := make([]models.RFQRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := m.Get(ctx, area, id)
		if err != nil {
			if err == ErrNotFound {
				continue
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func buildAreaSheet(name string, records []models.RFQRecord) excel.Sheet {
	preferred := map[string]bool{"rfqNo": true}
	for _, col := range exportPreferredColumns {
		preferred[col] = true
	}

	extraSet := map[string]bool{}
	for _, rec := range records {
		for k := range rec.Extra {
			if !preferred[k] {
				extraSet[k] = true
			}
		}
	}
	extras := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extras = append(extras, k)
	}
	sort.Strings(extras)

	header := append(append([]string{}, exportPreferredColumns...), extras...)
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, 0, len(header))
		row = append(row,
			rec.RfqNo,
			rec.WorkflowStatus,
			rec.Assignee,
			firstOf(rec.Extra["Assigned PM"], rec.Assignee),
			firstOf(rec.Extra["Customer"], rec.Extra["customer"]),
			firstOf(rec.Extra["Sales"], rec.Extra["sales"]),
			rec.CreatedAt,
			rec.UpdatedAt,
			rec.SalesReply,
			rec.SalesReplyDate,
			rec.PMReply,
			rec.PMReplyDate,
			rec.Source,
		)
		for _, k := range extras {
			row = append(row, rec.Extra[k])
		}
		rows = append(rows, row)
	}

	return excel.Sheet{Name: name, Header: header, Rows: rows}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
