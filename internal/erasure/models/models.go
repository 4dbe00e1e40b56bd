// Package models defines the records produced by the account-erasure
// workflow: the per-run aggregate result, its ordered phase steps, the
// verification report, and the PII-stripped durable record.
package models

import (
	"strings"
	"time"

	"minty/internal/ledger"
	id "minty/pkg/domain"
)

// Phase names one ordered step of the erasure workflow.
type Phase string

const (
	PhaseExport       Phase = "export"
	PhaseDomains      Phase = "domain_deletion"
	PhaseIdentity     Phase = "identity_revocation"
	PhaseVerification Phase = "verification"
	PhaseFinalization Phase = "finalization"
)

// Phases returns the fixed execution order. No phase is skipped, even when an
// earlier one fails.
func Phases() []Phase {
	return []Phase{PhaseExport, PhaseDomains, PhaseIdentity, PhaseVerification, PhaseFinalization}
}

// StepStatus is the lifecycle of one phase record.
type StepStatus string

const (
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// StepRecord captures one phase's execution inside a run.
type StepRecord struct {
	Phase     Phase          `json:"phase"`
	Status    StepStatus     `json:"status"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at,omitzero"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// VerificationReport is the post-deletion audit: one independent boolean per
// check, with the aggregate pass derived as the AND of all of them.
type VerificationReport struct {
	Checks map[string]bool `json:"checks"`
	Passed bool            `json:"passed"`
}

// Verification check names. One presence check per domain is keyed
// "<domain>_empty".
const (
	CheckIdentityInactive = "identity_inactive"
	CheckNamespaceEmpty   = "local_namespace_empty"
)

// DomainCheck returns the verification check name for a domain's presence check.
func DomainCheck(domain ledger.Domain) string {
	return string(domain) + "_empty"
}

// NewVerificationReport creates a report with every check present and failing
// until proven otherwise.
func NewVerificationReport() *VerificationReport {
	checks := map[string]bool{
		CheckIdentityInactive: false,
		CheckNamespaceEmpty:   false,
	}
	for _, domain := range ledger.Domains() {
		checks[DomainCheck(domain)] = false
	}
	return &VerificationReport{Checks: checks}
}

// Finish derives the aggregate pass flag and returns the report.
func (r *VerificationReport) Finish() *VerificationReport {
	r.Passed = true
	for _, ok := range r.Checks {
		if !ok {
			r.Passed = false
			break
		}
	}
	return r
}

// DeletionResult is the aggregate record for one erasure run. It is mutated
// only by the orchestrator while the run holds the single-flight lock and is
// sealed before it becomes visible through history queries.
type DeletionResult struct {
	ID            id.DeletionID         `json:"id"`
	UserID        id.UserID             `json:"user_id"`
	ContactMasked string                `json:"contact_masked,omitempty"`
	StartedAt     time.Time             `json:"started_at"`
	Duration      time.Duration         `json:"duration"`
	Steps         []StepRecord          `json:"steps"`
	DomainCounts  map[ledger.Domain]int `json:"domain_counts"`
	Errors        []string              `json:"errors"`
	Warnings      []string              `json:"warnings"`
	AuthDeleted   bool                  `json:"auth_deleted"`
	Success       bool                  `json:"success"`
}

// NewDeletionResult creates the result for a freshly admitted run. Every
// known domain is present in DomainCounts from the start, at zero, so a
// domain whose deletion never ran still reports an explicit count.
func NewDeletionResult(userID id.UserID, contact string, startedAt time.Time) *DeletionResult {
	counts := make(map[ledger.Domain]int, len(ledger.Domains()))
	for _, domain := range ledger.Domains() {
		counts[domain] = 0
	}
	return &DeletionResult{
		ID:            id.NewDeletionID(),
		UserID:        userID,
		ContactMasked: MaskContact(contact),
		StartedAt:     startedAt,
		DomainCounts:  counts,
		Errors:        []string{},
		Warnings:      []string{},
	}
}

// BeginStep appends a running StepRecord for the phase and returns it.
func (r *DeletionResult) BeginStep(phase Phase, now time.Time) *StepRecord {
	r.Steps = append(r.Steps, StepRecord{
		Phase:     phase,
		Status:    StepRunning,
		StartedAt: now,
	})
	return &r.Steps[len(r.Steps)-1]
}

// StepFor returns the record for a phase, or nil when the phase never ran.
func (r *DeletionResult) StepFor(phase Phase) *StepRecord {
	for i := range r.Steps {
		if r.Steps[i].Phase == phase {
			return &r.Steps[i]
		}
	}
	return nil
}

// AddError records a fatal-to-success failure. The run still continues.
func (r *DeletionResult) AddError(message string) {
	r.Errors = append(r.Errors, message)
}

// AddWarning records a non-fatal failure.
func (r *DeletionResult) AddWarning(message string) {
	r.Warnings = append(r.Warnings, message)
}

// Seal computes the terminal fields. Success means no errors were recorded;
// warnings alone never fail a run.
func (r *DeletionResult) Seal(endedAt time.Time) {
	r.Duration = endedAt.Sub(r.StartedAt)
	r.Success = len(r.Errors) == 0
}

// MaskContact masks an email-like contact reference for display, keeping the
// first character of the local part and the full domain.
func MaskContact(contact string) string {
	if contact == "" {
		return ""
	}
	at := strings.IndexByte(contact, '@')
	if at <= 0 {
		if len(contact) <= 2 {
			return "**"
		}
		return contact[:1] + strings.Repeat("*", len(contact)-1)
	}
	return contact[:1] + "***" + contact[at:]
}

// Record is the PII-stripped deletion record written to durable state during
// finalization. Subject identifier and contact fields are deliberately
// omitted; only operational metadata survives.
type Record struct {
	DeletionID   id.DeletionID         `json:"deletion_id"`
	CompletedAt  time.Time             `json:"completed_at"`
	Duration     time.Duration         `json:"duration"`
	DomainCounts map[ledger.Domain]int `json:"domain_counts"`
	Success      bool                  `json:"success"`
}

// RecordFromResult strips a result down to its durable form. The result's
// Success flag is not final until Seal, so finalization derives it the same
// way: no errors so far means success so far.
func RecordFromResult(result *DeletionResult, completedAt time.Time) Record {
	counts := make(map[ledger.Domain]int, len(result.DomainCounts))
	for domain, count := range result.DomainCounts {
		counts[domain] = count
	}
	return Record{
		DeletionID:   result.ID,
		CompletedAt:  completedAt,
		Duration:     completedAt.Sub(result.StartedAt),
		DomainCounts: counts,
		Success:      len(result.Errors) == 0,
	}
}
