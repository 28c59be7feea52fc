// Package agg holds per-station running aggregates and the merge rule that
// combines partial results.
package agg

// Stats is the running aggregate for one station. All values are tenths.
// An existing Stats always has Count >= 1 and Min <= Max.
type Stats struct {
	Min   int64
	Max   int64
	Sum   int64
	Count uint64
}

// Add folds one observation into s.
func (s *Stats) Add(v int64) {
	s.Min = min(s.Min, v)
	s.Max = max(s.Max, v)
	s.Sum += v
	s.Count++
}

// Merge folds another aggregate for the same station into s.
func (s *Stats) Merge(o Stats) {
	s.Min = min(s.Min, o.Min)
	s.Max = max(s.Max, o.Max)
	s.Sum += o.Sum
	s.Count += o.Count
}

// Result maps a station name, kept as raw bytes in a string, to its
// aggregate.
type Result map[string]*Stats

// Observe records value v for key. The lookup does not copy key; the key
// bytes are copied only the first time the station is seen.
func (r Result) Observe(key []byte, v int64) {
	if s, ok := r[string(key)]; ok {
		s.Add(v)
		return
	}
	r[string(key)] = &Stats{Min: v, Max: v, Sum: v, Count: 1}
}

// Merge folds partial results into a new Result. The inputs are left
// untouched, and neither their order nor how the input was partitioned
// changes the outcome.
func Merge(parts ...Result) Result {
	size := 0
	for _, p := range parts {
		size = max(size, len(p))
	}
	out := make(Result, size)
	for _, p := range parts {
		for k, s := range p {
			if cur, ok := out[k]; ok {
				cur.Merge(*s)
				continue
			}
			cp := *s
			out[k] = &cp
		}
	}
	return out
}

// Equal reports whether two results hold the same stations and aggregates.
func Equal(a, b Result) bool {
	if len(a) != len(b) {
		return false
	}
	for k, sa := range a {
		sb, ok := b[k]
		if !ok || *sa != *sb {
			return false
		}
	}
	return true
}
