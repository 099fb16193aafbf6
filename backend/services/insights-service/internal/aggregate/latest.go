package aggregate

import "time"

// Rank orders candidates within a group: higher Primary wins, then higher
// Sub, then higher Seq.
type Rank struct {
	Primary int64
	Sub     int64
	Seq     int64
}

// TimeRank ranks by timestamp with seq as tie-break. Seconds and nanoseconds
// are kept apart so any time.Time, including the zero value, orders correctly.
func TimeRank(t time.Time, seq int64) Rank {
	return Rank{Primary: t.Unix(), Sub: int64(t.Nanosecond()), Seq: seq}
}

// Beats reports whether r strictly outranks other.
func (r Rank) Beats(other Rank) bool {
	if r.Primary != other.Primary {
		return r.Primary > other.Primary
	}
	if r.Sub != other.Sub {
		return r.Sub > other.Sub
	}
	return r.Seq > other.Seq
}

// LatestBy groups items by key and keeps the highest ranked item of each group.
// On a full rank tie the first item seen is kept.
func LatestBy[T any, K comparable](items []T, key func(T) K, rank func(T) Rank) map[K]T {
	out := make(map[K]T, len(items))
	ranks := make(map[K]Rank, len(items))
	for _, item := range items {
		k := key(item)
		r := rank(item)
		if current, ok := ranks[k]; ok && !r.Beats(current) {
			continue
		}
		out[k] = item
		ranks[k] = r
	}
	return out
}
