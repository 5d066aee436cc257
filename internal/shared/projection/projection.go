package projection

import "time"

// Metadata carries the persistence timestamps of an order.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touched returns metadata for a save at the given instant. The creation
// time of an already stored entity is preserved.
func (m Metadata) Touched(at time.Time) Metadata {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = at
	}
	m.UpdatedAt = at
	return m
}

// Projection pairs an aggregate with its persistence metadata.
type Projection[T any] struct {
	Entity   T
	Metadata Metadata
}
