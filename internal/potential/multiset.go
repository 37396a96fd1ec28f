package potential

// Remaining returns pool with each item of placed removed once.
// Duplicates are respected: placing one 3 from a pool holding two 3s leaves
// exactly one 3. Placed items absent from pool are ignored.
func Remaining[T comparable](pool, placed []T) []T {
	out := make([]T, len(pool))
	copy(out, pool)
	for _, p := range placed {
		for i, v := range out {
			if v == p {
				out = append(out[:i], out[i+1:]...)
				break
			}
		}
	}
	return out
}

// without returns a copy of s minus the element at index i.
func without[T any](s []T, i int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

// with returns a copy of s with v appended.
func with[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}
