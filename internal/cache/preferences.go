package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"minty/internal/ledger"
	id "minty/pkg/domain"
)

// PreferencesStore persists user preferences as namespaced keys
// ("prefs:<user>:<item>") instead of a dedicated domain table. It implements
// ledger.Store so the erasure fan-out treats preferences like any other
// domain, while verification can independently assert the prefix is empty.
type PreferencesStore struct {
	ns Namespace
}

var _ ledger.Store = (*PreferencesStore)(nil)

// NewPreferencesStore creates a preferences store over the namespace.
func NewPreferencesStore(ns Namespace) *PreferencesStore {
	return &PreferencesStore{ns: ns}
}

func prefsKey(userID id.UserID, itemID id.ItemID) string {
	return PrefixPreferences + userID.String() + ":" + itemID.String()
}

func (s *PreferencesStore) Put(ctx context.Context, item ledger.Item) error {
	if item.ID.IsNil() {
		item.ID = id.NewItemID()
	}
	item.Domain = ledger.DomainPreferences

	encoded, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode preference: %w", err)
	}
	return s.ns.Set(ctx, prefsKey(item.UserID, item.ID), encoded)
}

func (s *PreferencesStore) ListByUser(ctx context.Context, userID id.UserID) ([]ledger.Item, error) {
	prefix := PrefixPreferences + userID.String() + ":"
	keys, err := s.ns.KeysWithPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}

	items := make([]ledger.Item, 0, len(keys))
	for _, key := range keys {
		value, err := s.ns.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		var item ledger.Item
		if err := json.Unmarshal(value, &item); err != nil {
			return nil, fmt.Errorf("decode preference %s: %w", key, err)
		}
		// Backfill identity for records written by older clients that stored
		// the bare payload.
		if item.UserID.IsNil() {
			item.UserID = userID
		}
		if item.ID.IsNil() {
			if raw, ok := strings.CutPrefix(key, prefix); ok {
				if parsed, err := id.ParseItemID(raw); err == nil {
					item.ID = parsed
				}
			}
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID.String() < items[j].ID.String() })
	return items, nil
}

func (s *PreferencesStore) DeleteByID(ctx context.Context, userID id.UserID, itemID id.ItemID) error {
	return s.ns.Remove(ctx, prefsKey(userID, itemID))
}
