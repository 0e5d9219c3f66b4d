package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// WorkerIdentity identifies one worker slot in the pool. The ordinal is a
// dense 0-based index into the pool, used for enablement lookups and log
// labels; the UUID disambiguates workers across process restarts.
type WorkerIdentity struct {
	// Ordinal is the worker's slot in the pool. Immutable after
	// construction.
	Ordinal int

	// UUID uniquely identifies this worker instance.
	UUID string
}

// NewWorkerIdentity creates an identity for the given pool slot with a
// freshly generated UUID. It fails when ordinal is negative.
func NewWorkerIdentity(ordinal int) (WorkerIdentity, error) {
	if ordinal < 0 {
		return WorkerIdentity{}, fmt.Errorf("%w: %d", ErrInvalidOrdinal, ordinal)
	}
	return WorkerIdentity{
		Ordinal: ordinal,
		UUID:    uuid.NewString(),
	}, nil
}

// String returns a compact label for log lines, e.g. "worker-2/1b9f04c8".
func (id WorkerIdentity) String() string {
	short := id.UUID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("worker-%d/%s", id.Ordinal, short)
}
