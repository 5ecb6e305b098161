package pathing

// Favoring biases a replan toward the previous path. Every edge whose
// destination lies on the old path gets its cost multiplied by a
// coefficient below one, so near-equal alternatives stop flip-flopping
// between successive searches.
type Favoring struct {
	coefficients map[uint64]float64
}

// NewFavoring builds the bias table from a previous path. A nil previous
// path or a coefficient of 1 yields an empty favoring.
func NewFavoring(previous *Path, coefficient float64) *Favoring {
	f := &Favoring{}
	if previous == nil || coefficient <= 0 || coefficient >= 1 {
		return f
	}
	f.coefficients = make(map[uint64]float64, previous.Length())
	for _, p := range previous.Positions() {
		f.coefficients[p.Packed()] = coefficient
	}
	return f
}

// CoefficientAt returns the cost multiplier for an edge landing on p.
func (f *Favoring) CoefficientAt(p Pos) float64 {
	if f == nil || f.coefficients == nil {
		return 1
	}
	if c, ok := f.coefficients[p.Packed()]; ok {
		return c
	}
	return 1
}

// Empty reports whether the favoring has no effect.
func (f *Favoring) Empty() bool {
	return f == nil || len(f.coefficients) == 0
}
