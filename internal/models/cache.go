package models

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"
)

// QuestionCacheEntry maps a generation-parameter fingerprint to the question
// ids produced for those parameters. Entries expire via a TTL index on
// expires_at.
type QuestionCacheEntry struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	Fingerprint string    `bson:"fingerprint" json:"fingerprint"`
	QuestionIDs []string  `bson:"question_ids" json:"question_ids"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time `bson:"expires_at" json:"expires_at"`
}

// GenerationFingerprint derives a stable key from generation parameters.
// Order of the input slices does not affect the fingerprint.
func GenerationFingerprint(verticals, roles, topics []string, difficulties []int) string {
	parts := []string{
		joinSorted(verticals),
		joinSorted(roles),
		joinSorted(topics),
		joinSortedInts(difficulties),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func joinSorted(values []string) string {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func joinSortedInts(values []int) string {
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
