package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"settlementapi/src/model"
)

// GenesisHash anchors the first entry of a chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// ComputeHash derives the entry hash from its own fields plus the previous
// entry's hash. CreatedAt must already be set; the timestamp participates in
// the hash, so it is fixed before insert and never touched afterwards.
func ComputeHash(e *model.AuditLog, previousHash string) string {
	var houseID, userID uint64
	if e.ExchangeHouseID != nil {
		houseID = uint64(*e.ExchangeHouseID)
	}
	if e.UserID != nil {
		userID = uint64(*e.UserID)
	}

	parts := []string{
		e.Action,
		e.EntityType,
		strconv.FormatUint(uint64(e.EntityID), 10),
		e.OldValues,
		e.NewValues,
		strconv.FormatUint(houseID, 10),
		strconv.FormatUint(userID, 10),
		strconv.FormatInt(e.CreatedAt.UTC().UnixNano(), 10),
		previousHash,
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// VerifyChain recomputes every hash in id order and reports the first entry
// whose stored hashes do not line up. Entries must be sorted by ID ascending.
func VerifyChain(entries []model.AuditLog) error {
	_, err := VerifyChainFrom(entries, GenesisHash)
	return err
}

// VerifyChainFrom verifies one batch of a chain walk, starting from the given
// running hash, and returns the hash to resume the next batch with.
func VerifyChainFrom(entries []model.AuditLog, prev string) (string, error) {
	for i := range entries {
		e := &entries[i]
		if e.PreviousHash != prev {
			return "", fmt.Errorf("audit entry %d: previous_hash mismatch (stored %s, expected %s)",
				e.ID, e.PreviousHash, prev)
		}
		if computed := ComputeHash(e, prev); computed != e.CurrentHash {
			return "", fmt.Errorf("audit entry %d: current_hash mismatch (stored %s, computed %s)",
				e.ID, e.CurrentHash, computed)
		}
		prev = e.CurrentHash
	}
	return prev, nil
}
