package model

import "time"

// MilestoneKind names one entry of the append-only tracking timeline.
type MilestoneKind string

const (
	MilestonePlaced     MilestoneKind = "placed"
	MilestoneAssigned   MilestoneKind = "assigned"
	MilestoneEnRoute    MilestoneKind = "en_route"
	MilestoneArrived    MilestoneKind = "arrived"
	MilestoneDelivering MilestoneKind = "delivering"
	MilestoneCompleted  MilestoneKind = "completed"
	MilestoneCancelled  MilestoneKind = "cancelled"
)

// Milestone is written at most once per order; its timestamp is never
// overwritten after the first write. Payload carries milestone-specific
// detail such as ETA, delivery proof, or cancellation reason.
type Milestone struct {
	OrderID    int64
	Kind       MilestoneKind
	OccurredAt time.Time
	Payload    map[string]any
}
