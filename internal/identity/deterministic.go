package identity

import (
	"strconv"
	"strings"
	"sync/atomic"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from key with go-hashid. Callers prefix
// keys by entity kind so different kinds never collide.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// BlockID returns a stable block id for the block at index inside the
// document identified by documentKey. Re-importing the same source yields the
// same ids.
func BlockID(documentKey string, index int) string {
	return UUID("go-blockdoc:block:" + strings.ToLower(strings.TrimSpace(documentKey)) + ":" + strconv.Itoa(index)).String()
}

// SubRecordID returns a stable id for a nested record (itinerary day, flight
// segment, ...) of kind at index within blockID.
func SubRecordID(blockID, kind string, index int) string {
	return UUID("go-blockdoc:" + strings.TrimSpace(kind) + ":" + strings.TrimSpace(blockID) + ":" + strconv.Itoa(index)).String()
}

// Sequence returns a generator of stable ids scoped to scope: the nth call
// always yields the same id. It is safe for concurrent use, though the order
// ids are handed out then depends on the callers.
func Sequence(scope string) func() string {
	var next atomic.Int64
	return func() string {
		return SubRecordID(scope, "seq", int(next.Add(1)-1))
	}
}
