package flight

// FlightBuilderOption is a function that modifies the flight settings during construction.
type FlightBuilderOption func(*flight)

// WithSpeedSmoothing sets the exponential rate at which the applied animation
// speed approaches the target speed. A rate of 0 disables smoothing so speed
// changes apply immediately.
//
// Parameters:
//   - rate: the smoothing rate per second, higher converges faster
//
// Returns:
//   - FlightBuilderOption: the option function
func WithSpeedSmoothing(rate float32) FlightBuilderOption {
	return func(f *flight) {
		if rate >= 0 {
			f.smoothingRate = rate
		}
	}
}

// WithInitialSpeed sets both the applied and target animation speed at
// construction, skipping the smoothing ramp for the first value.
//
// Parameters:
//   - speed: the initial speed in curve traversals per time unit
//
// Returns:
//   - FlightBuilderOption: the option function
func WithInitialSpeed(speed float32) FlightBuilderOption {
	return func(f *flight) {
		f.currentSpeed = speed
		f.targetSpeed = speed
	}
}
