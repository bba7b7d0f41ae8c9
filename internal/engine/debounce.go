package engine

// Debouncer accepts a new presence value only after it has been sampled a
// number of times in a row. With required == 1 every sample is accepted.
type Debouncer struct {
	required  int
	stable    bool
	candidate bool
	count     int
}

func NewDebouncer(required int, initial bool) *Debouncer {
	if required < 1 {
		required = 1
	}
	return &Debouncer{required: required, stable: initial}
}

// Update records a sample and returns the debounced value.
func (d *Debouncer) Update(sample bool) bool {
	if sample == d.stable {
		d.count = 0
		return d.stable
	}
	if d.count == 0 || sample != d.candidate {
		d.candidate = sample
		d.count = 0
	}
	d.count++
	if d.count >= d.required {
		d.stable = sample
		d.count = 0
	}
	return d.stable
}

// SetRequired changes the run length; a pending candidate is kept.
func (d *Debouncer) SetRequired(required int) {
	if required < 1 {
		required = 1
	}
	d.required = required
}
