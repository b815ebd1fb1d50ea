package rafkogym

import (
	"github.com/davids91/rafko-go/rafko"
)

// BackpropData is the memory-bounded backprop data store: three ring
// buffers over a common time axis — per-timestep operation values,
// per-timestep per-weight derivatives, and a per-sequence-position
// exponential moving average of the weight derivatives that feed the
// training signal.
type BackpropData struct {
	opCount                       int
	weightCount                   int
	weightRelevantOperationCount int
	sequenceSize                 int

	values      *ringBuffer[[]float64]
	derivatives *ringBuffer[[][]float64]
	seqDerivs   *ringBuffer[[]float64]

	updateWeightDerivFlag bool
	built                 bool
}

// NewBackpropData constructs an unbuilt store; call Build before use.
func NewBackpropData() *BackpropData {
	return &BackpropData{}
}

// Build allocates the three ring buffers: `values` and `derivatives` get
// memorySize+1 slots (so a `reach_past` of up to memorySize is
// addressable), `sequenceDerivatives` gets exactly sequenceSize slots.
func (d *BackpropData) Build(opCount, weightRelevantOperationCount, weightCount int, memorySize uint32, sequenceSize int) error {
	if opCount < 0 || weightCount < 0 || sequenceSize < 1 {
		return rafko.NewBoundsCheck("Build: invalid shape op_count=%d weight_count=%d sequence_size=%d",
			opCount, weightCount, sequenceSize)
	}
	if weightRelevantOperationCount < 0 || weightRelevantOperationCount > opCount {
		return rafko.NewBoundsCheck("Build: weight_relevant_operation_count %d out of [0,%d]",
			weightRelevantOperationCount, opCount)
	}
	d.opCount = opCount
	d.weightCount = weightCount
	d.weightRelevantOperationCount = weightRelevantOperationCount
	d.sequenceSize = sequenceSize

	depth := int(memorySize) + 1
	d.values = newRingBuffer(depth,
		func() []float64 { return make([]float64, opCount) },
		func(v []float64) []float64 { return append([]float64(nil), v...) })
	d.derivatives = newRingBuffer(depth,
		func() [][]float64 { return newMatrix(opCount, weightCount) },
		cloneMatrix)
	d.seqDerivs = newRingBuffer(sequenceSize,
		func() []float64 { return make([]float64, weightCount) },
		func(v []float64) []float64 { return append([]float64(nil), v...) })

	d.built = true
	return nil
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func cloneMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Reset zero-fills every buffer and rewinds every write head.
func (d *BackpropData) Reset() {
	d.values.reset()
	d.derivatives.reset()
	d.seqDerivs.reset()
}

// Step advances the write index: values shallow-advance (the newly
// current slot keeps its previous contents, now garbage), derivatives and
// sequenceDerivatives clean-advance (zero-filled).
func (d *BackpropData) Step() {
	d.values.step(false)
	d.derivatives.step(true)
	d.seqDerivs.step(true)
}

// SetWeightDerivUpdateFlag controls whether SetDerivative folds its value
// into the sequence-position EMA. The optimiser sets this true only while
// the current label step lies inside the minibatch's truncation window.
func (d *BackpropData) SetWeightDerivUpdateFlag(on bool) {
	d.updateWeightDerivFlag = on
}

// SetValue writes values[now][op] = v. op must be in [0, op_count):
// writes outside bounds are a caller error.
func (d *BackpropData) SetValue(op int, v float64) error {
	if op < 0 || op >= d.opCount {
		if rafko.DebugChecks {
			panic(rafko.NewBoundsCheck("SetValue: op %d out of [0,%d)", op, d.opCount))
		}
		return rafko.NewBoundsCheck("SetValue: op %d out of [0,%d)", op, d.opCount)
	}
	d.values.slots[d.values.now][op] = v
	return nil
}

// GetValue returns values at `past` steps behind now for operation op.
// A past index at or beyond the buffer's depth returns a sentinel 0.0
// rather than erroring.
func (d *BackpropData) GetValue(past, op int) float64 {
	row, ok := d.values.at(past)
	if !ok {
		return 0.0
	}
	if op < 0 || op >= len(row) {
		if rafko.DebugChecks {
			panic(rafko.NewBoundsCheck("GetValue: op %d out of [0,%d)", op, len(row)))
		}
		return 0.0
	}
	return row[op]
}

// SetDerivative writes derivatives[now][op][w] = v, and — when
// UpdateWeightDerivFlag is set and op is one of the weight-relevant
// leading operations (the objective + performance features) — folds v
// into the sequence-position EMA with factor 1/2: this is the only place
// the training signal leaves the raw graph.
func (d *BackpropData) SetDerivative(op, weightIdx int, v float64) error {
	if op < 0 || op >= d.opCount || weightIdx < 0 || weightIdx >= d.weightCount {
		if rafko.DebugChecks {
			panic(rafko.NewBoundsCheck("SetDerivative: op %d / weight %d out of bounds", op, weightIdx))
		}
		return rafko.NewBoundsCheck("SetDerivative: op %d / weight %d out of bounds", op, weightIdx)
	}
	d.derivatives.slots[d.derivatives.now][op][weightIdx] = v
	if d.updateWeightDerivFlag && op < d.weightRelevantOperationCount {
		cur := d.seqDerivs.slots[d.seqDerivs.now]
		cur[weightIdx] = (cur[weightIdx] + v) / 2.0
	}
	return nil
}

// GetDerivative returns derivatives at `past` steps behind now, for
// operation op and weight weightIdx. Out-of-memory reads are
// sentinel-zero.
func (d *BackpropData) GetDerivative(past, op, weightIdx int) float64 {
	mat, ok := d.derivatives.at(past)
	if !ok {
		return 0.0
	}
	if op < 0 || op >= len(mat) || weightIdx < 0 || weightIdx >= len(mat[op]) {
		if rafko.DebugChecks {
			panic(rafko.NewBoundsCheck("GetDerivative: op %d / weight %d out of bounds", op, weightIdx))
		}
		return 0.0
	}
	return mat[op][weightIdx]
}

// SequenceDerivative returns the EMA buffer's value at the given
// sequence position (0-indexed from sequence start) for weightIdx.
func (d *BackpropData) SequenceDerivative(position, weightIdx int) float64 {
	// The seqDerivs ring is addressed the same way as the other two: 0 is
	// "current" (the most recently stepped position). Callers in the
	// optimiser address positions by how far behind the current write
	// head they are.
	row, ok := d.seqDerivs.at(position)
	if !ok {
		return 0.0
	}
	if weightIdx < 0 || weightIdx >= len(row) {
		return 0.0
	}
	return row[weightIdx]
}

// OperationCount, WeightCount and WeightRelevantOperationCount expose the
// shape Build was called with.
func (d *BackpropData) OperationCount() int              { return d.opCount }
func (d *BackpropData) WeightCount() int                 { return d.weightCount }
func (d *BackpropData) WeightRelevantOperationCount() int { return d.weightRelevantOperationCount }
func (d *BackpropData) Built() bool                      { return d.built }
func (d *BackpropData) MemoryDepth() int                 { return d.values.depth() }
