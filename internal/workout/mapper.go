package workout

// Position is where an elapsed time falls within a timeline.
// When Finished is true the other fields are zero.
type Position struct {
	Finished    bool
	Index       int     // Index of the active stage
	Stage       Stage   // The active stage
	Next        Stage   // Stage after the active one, valid when HasNext
	HasNext     bool    // False on the final stage
	TimeInStage float64 // Seconds since the active stage started
}

// Remaining returns the seconds left in the active stage
func (p Position) Remaining() float64 {
	if p.Finished {
		return 0
	}
	return p.Stage.Seconds() - p.TimeInStage
}

// Progress returns how far into the active stage p is, from 0 to 1
func (p Position) Progress() float64 {
	if p.Finished {
		return 1
	}
	length := p.Stage.Seconds()
	if length <= 0 {
		return 1
	}
	return p.TimeInStage / length
}

// StageAt maps elapsed seconds onto tl. The active stage is the first one
// whose cumulative end is strictly greater than elapsed, so a time on a
// boundary belongs to the later stage and zero-length stages are never
// active. Elapsed at or past the total yields a finished Position.
func StageAt(tl Timeline, elapsed float64) Position {
	var start float64
	for i, stage := range tl {
		end := start + stage.Seconds()
		if elapsed < end {
			pos := Position{
				Index:       i,
				Stage:       stage,
				TimeInStage: elapsed - start,
			}
			if i+1 < len(tl) {
				pos.Next = tl[i+1]
				pos.HasNext = true
			}
			return pos
		}
		start = end
	}
	return Position{Finished: true}
}
