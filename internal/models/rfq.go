package models

import "encoding/json"

// RFQ areas.
const (
	AreaSystem = "system"
	AreaMB     = "mb"
)

func IsValidArea(area string) bool {
	return area == AreaSystem || area == AreaMB
}

// RFQRecord promotes the well-known fields to named attributes and keeps
// every imported ad hoc column in Extra. The wire and storage form is a
// flat string-to-string map either way.
type RFQRecord struct {
	RfqNo          string
	WorkflowStatus string
	Assignee       string
	SalesReply     string
	SalesReplyDate string
	PMReply        string
	PMReplyDate    string
	Source         string
	CreatedAt      string
	UpdatedAt      string
	Extra          map[string]string
}

var rfqKnownFields = map[string]bool{
	"rfqNo":          true,
	"workflowStatus": true,
	"assignee":       true,
	"salesReply":     true,
	"salesReplyDate": true,
	"pmReply":        true,
	"pmReplyDate":    true,
	"source":         true,
	"createdAt":      true,
	"updatedAt":      true,
}

// RFQFromHash rebuilds a record from a stored hash.
func RFQFromHash(data map[string]string) RFQRecord {
	rec := RFQRecord{
		RfqNo:          data["rfqNo"],
		WorkflowStatus: data["workflowStatus"],
		Assignee:       data["assignee"],
		SalesReply:     data["salesReply"],
		SalesReplyDate: data["salesReplyDate"],
		PMReply:        data["pmReply"],
		PMReplyDate:    data["pmReplyDate"],
		Source:         data["source"],
		CreatedAt:      data["createdAt"],
		UpdatedAt:      data["updatedAt"],
	}
	for k, v := range data {
		if rfqKnownFields[k] {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = map[string]string{}
		}
		rec.Extra[k] = v
	}
	return rec
}

// ToHash flattens the record back to its storage form.
func (r RFQRecord) ToHash() map[string]string {
	out := map[string]string{
		"rfqNo":          r.RfqNo,
		"workflowStatus": r.WorkflowStatus,
		"assignee":       r.Assignee,
		"salesReply":     r.SalesReply,
		"salesReplyDate": r.SalesReplyDate,
		"pmReply":        r.PMReply,
		"pmReplyDate":    r.PMReplyDate,
		"source":         r.Source,
		"createdAt":      r.CreatedAt,
		"updatedAt":      r.UpdatedAt,
	}
	for k, v := range r.Extra {
		out[k] = v
	}
	return out
}

// MarshalJSON keeps the API shape flat, matching the stored hash.
func (r RFQRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToHash())
}

// HistoryEntry - one patch applied to an RFQ record, newest first in
// storage.
type HistoryEntry struct {
	Ts      string            `json:"ts"`
	Updates map[string]string `json:"updates"`
}

type CreateRFQRequest struct {
	RfqNo string `json:"rfqNo"`
}

// ImportAreaStats counts the outcome of one imported sheet.
type ImportAreaStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

type ImportStats struct {
	System ImportAreaStats `json:"system"`
	MB     ImportAreaStats `json:"mb"`
}

// Area returns the counters for the given area for in-place updates.
func (s *ImportStats) Area(area string) *ImportAreaStats {
	if area == AreaMB {
		return &s.MB
	}
	return &s.System
}
