package engine

// NextDay applies the day-transition policy: a correct day advances up to
// MaxDay and then wraps to day 1, an incorrect day always resets to day 1.
func NextDay(day int, correct bool) (int, Outcome) {
	if !correct {
		return 1, OutcomeReset
	}
	if day >= MaxDay {
		return 1, OutcomeCompleted
	}
	return day + 1, OutcomeAdvance
}

// NewDay builds and initializes the RunState for day from a roster
func NewDay(day int, passengers []Passenger) (*RunState, error) {
	rs, err := NewRunState(day)
	if err != nil {
		return nil, err
	}
	if err := rs.Initialize(passengers); err != nil {
		return nil, err
	}
	return rs, nil
}

// Resolve evaluates a finished day and builds the next day's RunState from the
// same passenger templates.
func Resolve(rs *RunState, passengers []Passenger) (*RunState, Outcome, error) {
	next, outcome := NextDay(rs.Day, rs.IsCorrect())
	nextState, err := NewDay(next, passengers)
	if err != nil {
		return nil, outcome, err
	}
	return nextState, outcome, nil
}
