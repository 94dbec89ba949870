package insdb

import (
	"bytes"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Tracker records which objects a backend has resolved, for provenance and
// audit. It is a pure membership set, not a log: duplicates collapse and
// insertion order is not preserved. Each backend instance owns one tracker;
// recording is guarded by a mutex so concurrent tracked queries are safe.
type Tracker struct {
	mu      sync.Mutex
	objects map[trackedObject]struct{}
}

type trackedObject struct {
	kind Kind
	id   uuid.UUID
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{objects: make(map[trackedObject]struct{})}
}

// Record adds a resolved object to the tracked set.
func (t *Tracker) Record(kind Kind, id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.objects[trackedObject{kind: kind, id: id}] = struct{}{}
}

// Entities returns the UUIDs of all tracked entities, in ascending order.
func (t *Tracker) Entities() []uuid.UUID {
	return t.byKind(KindEntity)
}

// Quantities returns the UUIDs of all tracked quantities, in ascending
// order.
func (t *Tracker) Quantities() []uuid.UUID {
	return t.byKind(KindQuantity)
}

// DataFiles returns the UUIDs of all tracked data files, in ascending
// order.
func (t *Tracker) DataFiles() []uuid.UUID {
	return t.byKind(KindDataFile)
}

func (t *Tracker) byKind(kind Kind) []uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()

	var ids []uuid.UUID
	for obj := range t.objects {
		if obj.kind == kind {
			ids = append(ids, obj.id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}
