package types

// VectorTimestamp is a length-N sequence of non-negative integers, one
// counter per process. The zero value is not a valid timestamp of any
// particular size; callers must construct one with NewVectorTimestamp.
type VectorTimestamp []uint64

// NewVectorTimestamp returns a zeroed timestamp for n processes.
func NewVectorTimestamp(n int) VectorTimestamp {
	return make(VectorTimestamp, n)
}

// Copy returns a value-copy of x.
func (x VectorTimestamp) Copy() VectorTimestamp {
	cp := make(VectorTimestamp, len(x))
	copy(cp, x)
	return cp
}

// LessEqual reports whether x <= y componentwise, i.e. every event known to
// x is also known to y.
func (x VectorTimestamp) LessEqual(y VectorTimestamp) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] > y[i] {
			return false
		}
	}
	return true
}

// Merge returns the componentwise maximum of x and y.
func (x VectorTimestamp) Merge(y VectorTimestamp) VectorTimestamp {
	n := len(x)
	if len(y) > n {
		n = len(y)
	}
	out := make(VectorTimestamp, n)
	for i := 0; i < n; i++ {
		var a, b uint64
		if i < len(x) {
			a = x[i]
		}
		if i < len(y) {
			b = y[i]
		}
		if a > b {
			out[i] = a
		} else {
			out[i] = b
		}
	}
	return out
}

// Equal reports whether x and y hold the same counters.
func (x VectorTimestamp) Equal(y VectorTimestamp) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
