package slices

// apply mapper for each elements in sli, and return slice of the results.
func Map[T any, R any](sli []T, mapper func(v T) R) []R {
	mapped := make([]R, len(sli))
	for i, v := range sli {
		mapped[i] = mapper(v)
	}
	return mapped
}

// filter sli down to the elements satisfying predicator.
func Filter[T any](sli []T, predicator func(v T) bool) []T {
	filtered := []T{}
	for _, v := range sli {
		if predicator(v) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
