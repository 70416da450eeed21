package physics

// band is a half-open range of flat cell indices covering whole grid rows.
type band struct {
	start, end int
}

// bandSchedule cuts the grid into bands of rows full rows and splits them
// into the two phases. Bands inside one phase are separated by a full band,
// which is wider than the one-row reach of Nearby, so their neighborhoods
// never share a cell.
type bandSchedule struct {
	rows  int
	even  []band
	odd   []band
	total int
}

func validBandRows(rows int) bool {
	return rows > 2*neighborReach
}

func newBandSchedule(g *Grid, rows int) bandSchedule {
	chunk := g.Width() * rows
	cells := g.Len()

	s := bandSchedule{rows: rows}
	for k, start := 0, 0; start < cells; k, start = k+1, start+chunk {
		b := band{start: start, end: min(start+chunk, cells)}
		if k%2 == 0 {
			s.even = append(s.even, b)
		} else {
			s.odd = append(s.odd, b)
		}
		s.total++
	}
	return s
}

// Bands reports how many collision bands the current grid is cut into.
func (s *Solver) Bands() int { return s.bands.total }

// solveCollisions runs phase A (even bands) to completion, then phase B
// (odd bands). Each band is processed sequentially by one worker.
func (s *Solver) solveCollisions() {
	s.runPhase(s.bands.even)
	s.runPhase(s.bands.odd)
}

func (s *Solver) runPhase(bands []band) {
	s.pool.Each(len(bands), func(i int) {
		b := bands[i]
		for cell := b.start; cell < b.end; cell++ {
			s.processCell(cell)
		}
	})
}

func (s *Solver) processCell(index int) {
	near := s.grid.Nearby(index)
	for _, i := range near[4].Indices() {
		for _, cell := range near {
			for _, j := range cell.Indices() {
				s.resolve(i, j)
			}
		}
	}
}

// resolve pushes a pair apart to unit distance, splitting the correction
// evenly. Pairs at or beyond unit distance, and coincident pairs, are left
// alone.
func (s *Solver) resolve(i, j int32) {
	a, b := &s.particles[i], &s.particles[j]
	displacement := a.Position.Sub(b.Position)
	distSq := displacement.LengthSq()
	if distSq <= minSeparation*minSeparation || distSq >= 1 {
		return
	}
	dist := displacement.Length()
	correction := displacement.Scale((1 - dist) / 2 / dist)
	a.Position = a.Position.Add(correction)
	b.Position = b.Position.Sub(correction)
}
