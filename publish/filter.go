package publish

// SmoothK is coefficient of rate-like channel filters.
const SmoothK = 0.95

// EMA is exponential moving average starting at zero:
// v = v*K + x*(1-K). Not safe for concurrent use, each scheduler owns its filters.
type EMA struct {
	K float64
	v float64
}

func NewEMA(k float64) EMA { return EMA{K: k} }

func (e *EMA) Update(x float64) float64 {
	e.v = e.v*e.K + x*(1-e.K)
	return e.v
}

func (e *EMA) Value() float64 { return e.v }
