package models

import "time"

// HistoryEntry is the append-only header written once per engine operation.
// Entries are never updated or deleted.
type HistoryEntry struct {
	ID              int64           `json:"id"`
	PropertyID      int64           `json:"property_id"`
	RecordID        *int64          `json:"record_id,omitempty"`
	TransactionType TransactionType `json:"transaction_type"`
	Remarks         string          `json:"remarks,omitempty"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// HistoryChange is one field-level diff row under a history entry.
// For composite collections (owners, improvements, floors, ...) the engine
// logs the entire old and new collections as one paired row.
type HistoryChange struct {
	ID        int64  `json:"id"`
	HistoryID int64  `json:"history_id"`
	Field     string `json:"field"`
	OldValue  string `json:"old_value"`
	NewValue  string `json:"new_value"`
}

// LineageEdge records a parent→child link between valuation records for the
// fan-in and fan-out operations (consolidation, subdivision) that a single
// previous-version pointer cannot represent.
type LineageEdge struct {
	ID             int64 `json:"id"`
	HistoryID      int64 `json:"history_id"`
	ParentRecordID int64 `json:"parent_record_id"`
	ChildRecordID  int64 `json:"child_record_id"`
}

// HistoryDetail is a fully-loaded history entry with its diff rows and
// lineage edges.
type HistoryDetail struct {
	Entry   HistoryEntry    `json:"entry"`
	Changes []HistoryChange `json:"changes"`
	Edges   []LineageEdge   `json:"lineage_edges,omitempty"`
}
