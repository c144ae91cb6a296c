package models

import "time"

// Owner is a master owner record maintained outside the valuation core.
// The engine only reads owners to freeze snapshots onto new record versions.
type Owner struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	TIN       string    `json:"tin,omitempty"`
	Contact   string    `json:"contact,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerSnapshot is a point-in-time copy of an owner frozen onto a valuation
// record at version-creation time. Later edits to the owner master record do
// not touch snapshots, so historical versions keep the contact details that
// were current when they were issued.
type OwnerSnapshot struct {
	ID       int64  `json:"id"`
	RecordID int64  `json:"record_id"`
	OwnerID  int64  `json:"owner_id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	TIN      string `json:"tin,omitempty"`
	Contact  string `json:"contact,omitempty"`
}

// SnapshotOf freezes the current state of an owner for a record.
func SnapshotOf(recordID int64, o Owner) OwnerSnapshot {
	return OwnerSnapshot{
		RecordID: recordID,
		OwnerID:  o.ID,
		Name:     o.Name,
		Address:  o.Address,
		TIN:      o.TIN,
		Contact:  o.Contact,
	}
}
