package result

// Result is a nearest-neighbour hit: a position in the reference set and its
// great-circle distance (radians) from the query.
type Result struct {
	index    int
	distance float64
}

// New creates a search result.
func New(index int, distance float64) Result {
	return Result{index: index, distance: distance}
}

// Index returns the position of the hit in the reference set.
func (r Result) Index() int { return r.index }

// Distance returns the angular distance in radians.
func (r Result) Distance() float64 { return r.distance }

// Closer reports whether r ranks before o: smaller distance first,
// lower index on exact ties.
func (r Result) Closer(o Result) bool {
	if r.distance != o.distance {
		return r.distance < o.distance
	}
	return r.index < o.index
}
