package pane_batch

// PaneBatchBuilderOption is a functional option for configuring a PaneBatch during construction.
type PaneBatchBuilderOption func(*paneBatch)

// WithMaxPanes is an option builder that sets the fixed slot capacity of the PaneBatch.
// Capacity must be sized up front; slot indices at or beyond it are rejected.
//
// Parameters:
//   - maxPanes: the maximum number of panes to support
//
// Returns:
//   - PaneBatchBuilderOption: a function that applies the capacity option to a pane batch
func WithMaxPanes(maxPanes int) PaneBatchBuilderOption {
	return func(p *paneBatch) {
		p.backend.SetMaxPanes(uint32(maxPanes))
	}
}

// WithBaseSize is an option builder that sets the world-space edge length of an
// unscaled quad, shared by every pane.
//
// Parameters:
//   - size: the base quad size in world units
//
// Returns:
//   - PaneBatchBuilderOption: a function that applies the base size option to a pane batch
func WithBaseSize(size float32) PaneBatchBuilderOption {
	return func(p *paneBatch) {
		p.backend.SetBaseSize(size)
	}
}
