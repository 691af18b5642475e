package repository

// The storage engine caps the number of bound parameters per statement,
// so any IN clause over a caller-supplied list has to be split into
// chunks below that cap. The helpers here carry no business meaning:
// they chunk, invoke, and aggregate.

// forEachBatch invokes fn once per chunk of at most ceiling values, in
// index order. Empty input invokes fn zero times.
func forEachBatch[T any](values []T, ceiling int, fn func(chunk []T) error) error {
	for start := 0; start < len(values); start += ceiling {
		end := start + ceiling
		if end > len(values) {
			end = len(values)
		}
		if err := fn(values[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// collectBatches aggregates per-chunk read results by concatenation,
// which is set union when each chunk touches a disjoint parameter range.
func collectBatches[T, R any](values []T, ceiling int, fn func(chunk []T) ([]R, error)) ([]R, error) {
	var out []R
	err := forEachBatch(values, ceiling, func(chunk []T) error {
		rows, err := fn(chunk)
		if err != nil {
			return err
		}
		out = append(out, rows...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// countBatches aggregates per-chunk write results by summing affected
// row counts.
func countBatches[T any](values []T, ceiling int, fn func(chunk []T) (int64, error)) (int64, error) {
	var total int64
	err := forEachBatch(values, ceiling, func(chunk []T) error {
		n, err := fn(chunk)
		if err != nil {
			return err
		}
		total += n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
