package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settlementapi/src/model"
)

func entryAt(id uint, action string, ts time.Time) model.AuditLog {
	houseID := uint(7)
	userID := uint(3)
	return model.AuditLog{
		ID:              id,
		ExchangeHouseID: &houseID,
		UserID:          &userID,
		Action:          action,
		EntityType:      "order",
		EntityID:        42,
		OldValues:       `{"status":"pending"}`,
		NewValues:       `{"status":"completed"}`,
		CreatedAt:       ts,
	}
}

func buildChain(t *testing.T, actions ...string) []model.AuditLog {
	t.Helper()

	base := time.Date(2026, time.August, 1, 10, 0, 0, 0, time.UTC)
	entries := make([]model.AuditLog, 0, len(actions))

	prev := GenesisHash
	for i, action := range actions {
		e := entryAt(uint(i+1), action, base.Add(time.Duration(i)*time.Second))
		e.PreviousHash = prev
		e.CurrentHash = ComputeHash(&e, prev)
		prev = e.CurrentHash
		entries = append(entries, e)
	}
	return entries
}

func TestComputeHashDeterministic(t *testing.T) {
	ts := time.Date(2026, time.August, 1, 10, 0, 0, 0, time.UTC)
	a := entryAt(1, "order.created", ts)
	b := entryAt(1, "order.created", ts)

	assert.Equal(t, ComputeHash(&a, GenesisHash), ComputeHash(&b, GenesisHash))
	assert.Len(t, ComputeHash(&a, GenesisHash), 64)
}

func TestComputeHashCoversEveryField(t *testing.T) {
	ts := time.Date(2026, time.August, 1, 10, 0, 0, 0, time.UTC)
	base := entryAt(1, "order.created", ts)
	baseHash := ComputeHash(&base, GenesisHash)

	mutations := map[string]func(e *model.AuditLog){
		"action":      func(e *model.AuditLog) { e.Action = "order.completed" },
		"entity_type": func(e *model.AuditLog) { e.EntityType = "commission" },
		"entity_id":   func(e *model.AuditLog) { e.EntityID = 43 },
		"old_values":  func(e *model.AuditLog) { e.OldValues = `{}` },
		"new_values":  func(e *model.AuditLog) { e.NewValues = `{}` },
		"created_at":  func(e *model.AuditLog) { e.CreatedAt = ts.Add(time.Nanosecond) },
	}

	for field, mutate := range mutations {
		t.Run(field, func(t *testing.T) {
			e := entryAt(1, "order.created", ts)
			mutate(&e)
			assert.NotEqual(t, baseHash, ComputeHash(&e, GenesisHash))
		})
	}

	// different previous hash forks the chain
	assert.NotEqual(t, baseHash, ComputeHash(&base, baseHash))
}

func TestVerifyChainAcceptsIntactChain(t *testing.T) {
	entries := buildChain(t, "order.created", "order.completed", "cash.movement_registered")
	require.NoError(t, VerifyChain(entries))
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	entries := buildChain(t, "order.created", "order.completed", "cash.movement_registered")

	entries[1].NewValues = `{"status":"cancelled"}`

	err := VerifyChain(entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "current_hash mismatch")
}

func TestVerifyChainDetectsBrokenLink(t *testing.T) {
	entries := buildChain(t, "order.created", "order.completed", "cash.movement_registered")

	// rewrite entry 2 consistently with itself but not with its successor
	entries[1].NewValues = `{"status":"cancelled"}`
	entries[1].CurrentHash = ComputeHash(&entries[1], entries[1].PreviousHash)

	err := VerifyChain(entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "previous_hash mismatch")
}

func TestVerifyChainFromResumesAcrossBatches(t *testing.T) {
	entries := buildChain(t, "a", "b", "c", "d")

	running, err := VerifyChainFrom(entries[:2], GenesisHash)
	require.NoError(t, err)

	running, err = VerifyChainFrom(entries[2:], running)
	require.NoError(t, err)
	assert.Equal(t, entries[3].CurrentHash, running)
}
