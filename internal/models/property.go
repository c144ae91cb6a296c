package models

import (
	"time"
)

// PropertyKind identifies what kind of taxable unit a property is.
type PropertyKind string

const (
	KindLand      PropertyKind = "LAND"
	KindBuilding  PropertyKind = "BUILDING"
	KindMachinery PropertyKind = "MACHINERY"
)

// Valid reports whether the kind is one of the known property kinds.
func (k PropertyKind) Valid() bool {
	switch k {
	case KindLand, KindBuilding, KindMachinery:
		return true
	}
	return false
}

// PropertyStatus is the lifecycle status of a property.
// Every status except ACTIVE is terminal.
type PropertyStatus string

const (
	PropertyActive       PropertyStatus = "ACTIVE"
	PropertyConsolidated PropertyStatus = "CONSOLIDATED"
	PropertySubdivided   PropertyStatus = "SUBDIVIDED"
	PropertyCancelled    PropertyStatus = "CANCELLED"
	PropertyDestroyed    PropertyStatus = "DESTROYED"
)

// Valid reports whether the status is one of the known property statuses.
func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyActive, PropertyConsolidated, PropertySubdivided, PropertyCancelled, PropertyDestroyed:
		return true
	}
	return false
}

// CanTransition reports whether a property may move from one status to another.
// Only ACTIVE has outgoing transitions; all other statuses are terminal.
func CanTransition(from, to PropertyStatus) bool {
	if from != PropertyActive {
		return false
	}
	switch to {
	case PropertyConsolidated, PropertySubdivided, PropertyCancelled, PropertyDestroyed:
		return true
	}
	return false
}

// Property is the canonical identity of a taxable unit: a land parcel,
// a building, or a piece of machinery. Identity is immutable; only the
// status changes, and only along the transition table above.
type Property struct {
	ID                int64          `json:"id"`
	Kind              PropertyKind   `json:"kind"`
	Status            PropertyStatus `json:"status"`
	PIN               string         `json:"pin"`
	Barangay          string         `json:"barangay"`
	Street            string         `json:"street,omitempty"`
	City              string         `json:"city"`
	LocationalGroupID *int64         `json:"locational_group_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
