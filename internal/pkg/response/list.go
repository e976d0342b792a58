package response

// List converts items with fn, always returning a non-nil slice so empty lists encode as [].
func List[S any, T any](items []S, fn func(S) T) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		out = append(out, fn(it))
	}
	return out
}
