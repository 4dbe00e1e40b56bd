// Package ledger defines the finance data domains and their list/delete
// contracts. Full CRUD for these domains lives behind other surfaces; the
// erasure workflow only needs to enumerate and remove a user's items.
package ledger

import (
	"time"

	id "minty/pkg/domain"
)

// Domain names one independently-owned finance data category.
type Domain string

const (
	DomainTransactions Domain = "transactions"
	DomainAccounts     Domain = "accounts"
	DomainGoals        Domain = "goals"
	DomainInvestments  Domain = "investments"
	DomainBudgets      Domain = "budgets"
	DomainPreferences  Domain = "preferences"
)

// Domains returns all known domains in their canonical processing order.
// Erasure fan-out, export snapshots, and count maps all follow this order.
func Domains() []Domain {
	return []Domain{
		DomainTransactions,
		DomainAccounts,
		DomainGoals,
		DomainInvestments,
		DomainBudgets,
		DomainPreferences,
	}
}

// Item is the minimal projection of a domain record the erasure and export
// flows need: enough to delete it and to snapshot it.
type Item struct {
	ID        id.ItemID      `json:"id"`
	UserID    id.UserID      `json:"user_id"`
	Domain    Domain         `json:"domain"`
	Label     string         `json:"label,omitempty"`
	Amount    int64          `json:"amount_cents,omitempty"`
	Currency  string         `json:"currency,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Fields    map[string]any `json:"fields,omitempty"`
}
