package curve_batch

// CurveBatchBuilderOption is a function that modifies the curveBatch settings during construction.
type CurveBatchBuilderOption func(*curveBatch)

// WithMaxCurves sets the fixed slot capacity of the batch. All position, color, and
// arc-length storage is allocated up front for this many curves.
//
// Parameters:
//   - maxCurves: the slot capacity, must be positive
//
// Returns:
//   - CurveBatchBuilderOption: the option function
func WithMaxCurves(maxCurves int) CurveBatchBuilderOption {
	return func(c *curveBatch) {
		if maxCurves > 0 {
			c.maxCurves = uint32(maxCurves)
		}
	}
}

// WithSegmentsPerCurve sets how many line segments each curve is sampled into.
// Higher values give smoother curves at the cost of vertex count.
//
// Parameters:
//   - segments: the per-curve segment count, must be positive
//
// Returns:
//   - CurveBatchBuilderOption: the option function
func WithSegmentsPerCurve(segments int) CurveBatchBuilderOption {
	return func(c *curveBatch) {
		if segments > 0 {
			c.segments = uint32(segments)
		}
	}
}
