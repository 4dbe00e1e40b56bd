package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minty/internal/ledger"
	id "minty/pkg/domain"
)

func TestNewDeletionResult(t *testing.T) {
	result := NewDeletionResult(id.UserID(uuid.New()), "alice@example.com", time.Now())

	t.Run("every domain starts at zero", func(t *testing.T) {
		require.Len(t, result.DomainCounts, len(ledger.Domains()))
		for _, domain := range ledger.Domains() {
			count, ok := result.DomainCounts[domain]
			assert.True(t, ok, "domain %s missing", domain)
			assert.Zero(t, count)
		}
	})

	t.Run("contact is masked", func(t *testing.T) {
		assert.Equal(t, "a***@example.com", result.ContactMasked)
	})

	t.Run("deletion ID is unique per run", func(t *testing.T) {
		other := NewDeletionResult(id.UserID(uuid.New()), "", time.Now())
		assert.NotEqual(t, result.ID, other.ID)
	})
}

func TestDeletionResult_Seal(t *testing.T) {
	start := time.Now()

	t.Run("no errors means success despite warnings", func(t *testing.T) {
		result := NewDeletionResult(id.UserID(uuid.New()), "", start)
		result.AddWarning("identity provider unreachable")
		result.Seal(start.Add(3 * time.Second))

		assert.True(t, result.Success)
		assert.Equal(t, 3*time.Second, result.Duration)
	})

	t.Run("any error fails the run", func(t *testing.T) {
		result := NewDeletionResult(id.UserID(uuid.New()), "", start)
		result.AddError("export failed: storage quota exceeded")
		result.Seal(start.Add(time.Second))

		assert.False(t, result.Success)
	})
}

func TestStepRecords(t *testing.T) {
	result := NewDeletionResult(id.UserID(uuid.New()), "", time.Now())
	now := time.Now()

	step := result.BeginStep(PhaseExport, now)
	assert.Equal(t, StepRunning, step.Status)

	step.Status = StepCompleted
	step.EndedAt = now.Add(time.Second)

	found := result.StepFor(PhaseExport)
	require.NotNil(t, found)
	assert.Equal(t, StepCompleted, found.Status, "StepFor returns a live pointer")
	assert.Nil(t, result.StepFor(PhaseIdentity))
}

func TestVerificationReport(t *testing.T) {
	t.Run("contains one check per domain plus identity and namespace", func(t *testing.T) {
		report := NewVerificationReport()
		assert.Len(t, report.Checks, len(ledger.Domains())+2)
	})

	t.Run("passes only when all checks pass", func(t *testing.T) {
		report := NewVerificationReport()
		for name := range report.Checks {
			report.Checks[name] = true
		}
		assert.True(t, report.Finish().Passed)

		report.Checks[DomainCheck(ledger.DomainGoals)] = false
		assert.False(t, report.Finish().Passed)
	})
}

func TestMaskContact(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"alice@example.com", "a***@example.com"},
		{"b@x.io", "b***@x.io"},
		{"no-at-sign", "n*********"},
		{"ab", "**"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskContact(tt.in), "input %q", tt.in)
	}
}

func TestRecordFromResult(t *testing.T) {
	start := time.Now()
	result := NewDeletionResult(id.UserID(uuid.New()), "alice@example.com", start)
	result.DomainCounts[ledger.DomainTransactions] = 7

	record := RecordFromResult(result, start.Add(2*time.Second))

	assert.Equal(t, result.ID, record.DeletionID)
	assert.Equal(t, 2*time.Second, record.Duration)
	assert.Equal(t, 7, record.DomainCounts[ledger.DomainTransactions])
	assert.True(t, record.Success)

	// Mutating the record's counts must not touch the result.
	record.DomainCounts[ledger.DomainTransactions] = 0
	assert.Equal(t, 7, result.DomainCounts[ledger.DomainTransactions])
}
