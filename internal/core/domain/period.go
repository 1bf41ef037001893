package domain

import "time"

// PeriodStatus is the lifecycle state of an accounting period.
//
// OPEN accepts new entries. CLOSING is a transient barrier state during
// which new entries are rejected while already-admitted commits drain.
// CLOSED is terminal for direct mutation; reopening is a distinct
// administrative action recorded as a PeriodEvent, not a reverse transition.
type PeriodStatus string

const (
	PeriodOpen    PeriodStatus = "OPEN"
	PeriodClosing PeriodStatus = "CLOSING"
	PeriodClosed  PeriodStatus = "CLOSED"
)

// AcceptsPostings reports whether new entries may target the period.
func (s PeriodStatus) AcceptsPostings() bool {
	return s == PeriodOpen
}

// AccountingPeriod represents a tenant-scoped posting window.
type AccountingPeriod struct {
	PeriodID  string       `json:"periodID"` // Primary Key (UUID)
	TenantID  string       `json:"tenantID"` // FK -> tenants.tenant_id (Not Null)
	Name      string       `json:"name"`     // e.g. "2026-09" or "Fall Term 2026"
	StartDate time.Time    `json:"startDate"`
	EndDate   time.Time    `json:"endDate"` // Exclusive upper bound
	Status    PeriodStatus `json:"status"`
	AuditFields
}

// Contains reports whether the effective date falls inside the period.
func (p AccountingPeriod) Contains(t time.Time) bool {
	return !t.Before(p.StartDate) && t.Before(p.EndDate)
}

// PeriodEventType identifies an administrative action on a period.
type PeriodEventType string

const (
	PeriodEventClosed   PeriodEventType = "CLOSED"
	PeriodEventReopened PeriodEventType = "REOPENED"
)

// PeriodEvent is the audit record written for every close or reopen action.
type PeriodEvent struct {
	EventID    string          `json:"eventID"`  // Primary Key (UUID)
	TenantID   string          `json:"tenantID"` // FK -> tenants.tenant_id (Not Null)
	PeriodID   string          `json:"periodID"` // FK -> accounting_periods.period_id (Not Null)
	EventType  PeriodEventType `json:"eventType"`
	Reason     string          `json:"reason"` // Required for reopen events
	OccurredAt time.Time       `json:"occurredAt"`
	ActorID    string          `json:"actorID"` // UserID reference
}

// PeriodBalance is the snapshot of one account's balance at a period
// boundary: closing balance of the snapshotted period, carried forward as
// the opening balance of the following period. Derived data; recomputable
// from postings.
type PeriodBalance struct {
	TenantID       string `json:"tenantID"`
	PeriodID       string `json:"periodID"`
	AccountID      string `json:"accountID"`
	ClosingBalance Money  `json:"closingBalance"`
}
