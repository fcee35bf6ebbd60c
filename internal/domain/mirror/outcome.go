package mirror

import (
	"time"
)

// ---------------------------------------------------------------------------
// Run outcomes
// ---------------------------------------------------------------------------

// RunStatus is the overall status of a sync or cleanup run
type RunStatus string

const (
	// RunStatusSuccess indicates every unit of work succeeded
	RunStatusSuccess RunStatus = "SUCCESS"
	// RunStatusPartial indicates some units of work were skipped or failed
	RunStatusPartial RunStatus = "PARTIAL"
	// RunStatusFailed indicates the run was aborted or nothing succeeded
	RunStatusFailed RunStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusSuccess, RunStatusPartial, RunStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of RunStatus
func (s RunStatus) String() string {
	return string(s)
}

// OrderFailure records an order that was not written during a sync run
type OrderFailure struct {
	OID    int64  `json:"oid"`
	Number string `json:"number"`
	// ProductID is the remote product id that failed to resolve or validate, zero for write failures
	ProductID int64  `json:"productId,omitempty"`
	Reason    string `json:"reason"`
}

// SyncOutcome is the result of one reconciliation run
type SyncOutcome struct {
	Status     RunStatus `json:"status"`
	Since      time.Time `json:"since"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	// Fetched is the number of orders returned by the remote source
	Fetched int `json:"fetched"`
	// Created and Updated count orders written to the mirror
	Created int `json:"created"`
	Updated int `json:"updated"`
	// Skipped counts orders with an unresolvable line item
	Skipped int `json:"skipped"`
	// Failed counts orders whose write failed
	Failed          int            `json:"failed"`
	ProductsCreated int            `json:"productsCreated"`
	Failures        []OrderFailure `json:"failures,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// Synced returns the number of orders written during the run
func (o *SyncOutcome) Synced() int {
	return o.Created + o.Updated
}

// Finish derives the run status from the counters
func (o *SyncOutcome) Finish(at time.Time) {
	o.FinishedAt = at
	switch {
	case o.Error != "":
		o.Status = RunStatusFailed
	case o.Fetched == 0:
		o.Status = RunStatusSuccess
	case o.Synced() == 0:
		o.Status = RunStatusFailed
	case o.Skipped > 0 || o.Failed > 0:
		o.Status = RunStatusPartial
	default:
		o.Status = RunStatusSuccess
	}
}

// Duration returns how long the run took
func (o *SyncOutcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}

// CleanupOutcome is the result of one retention sweep
type CleanupOutcome struct {
	Status     RunStatus `json:"status"`
	Cutoff     time.Time `json:"cutoff"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	// StaleOrders is the number of orders selected for deletion
	StaleOrders   int   `json:"staleOrders"`
	OrdersDeleted int64 `json:"ordersDeleted"`
	// CandidateProducts is the number of distinct products referenced by the stale orders
	CandidateProducts int    `json:"candidateProducts"`
	OrphansFound      int    `json:"orphansFound"`
	ProductsDeleted   int64  `json:"productsDeleted"`
	Error             string `json:"error,omitempty"`
}

// Duration returns how long the sweep took
func (o *CleanupOutcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}
