package recolor

// DefaultSettle is the simulated time a full solver is left to settle
// before it is recolored.
const DefaultSettle = 10.0

// settleEpsilon absorbs rounding when summing many frame deltas.
const settleEpsilon = 1e-9

// SettleTimer measures how long a solver has stayed full. It fires once per
// full period and rearms when the solver starts filling again.
type SettleTimer struct {
	After   float64
	elapsed float64
	fired   bool
}

func NewSettleTimer(after float64) *SettleTimer {
	if after <= 0 {
		after = DefaultSettle
	}
	return &SettleTimer{After: after}
}

// Step adds dt of simulated time and reports whether the timer fired.
func (t *SettleTimer) Step(full bool, dt float64) bool {
	if !full {
		t.Reset()
		return false
	}
	if t.fired {
		return false
	}
	t.elapsed += dt
	if t.elapsed+settleEpsilon >= t.After {
		t.fired = true
		return true
	}
	return false
}

func (t *SettleTimer) Reset() {
	t.elapsed = 0
	t.fired = false
}

func (t *SettleTimer) Elapsed() float64 { return t.elapsed }
