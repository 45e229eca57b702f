package repositories

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

const (
	// Key prefixes for the key-value store
	DedupKeyPrefix    = "deduplicate:"
	PageViewKeyPrefix = "pageviews:"

	// maxTxnRetries bounds retries of conflicting badger transactions
	maxTxnRetries = 5
)

// DedupKey builds the key marking that ipHash already viewed slug.
func DedupKey(ipHash, slug string) string {
	return DedupKeyPrefix + ipHash + ":" + slug
}

// PageViewKey builds the counter key for slug.
func PageViewKey(slug string) string {
	return PageViewKeyPrefix + slug
}

// encodeCounter stores a counter as 8 big-endian bytes
func encodeCounter(n int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(n))
	return buf
}

// decodeCounter reads a counter written by encodeCounter
func decodeCounter(val []byte) (int64, error) {
	if len(val) != 8 {
		return 0, fmt.Errorf("invalid counter length %d", len(val))
	}
	return int64(binary.BigEndian.Uint64(val)), nil
}

// notFound maps sql.ErrNoRows to ErrNotFound
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation recognises unique constraint errors from SQLite and Postgres
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
