package engine

import "fmt"

// RunState is the game state for a single day. A RunState is never reused:
// resolving a day replaces it with a new one built for the next day.
//
// Empty strings mean "absent" for AnomalyID and PlayerGuess; passenger ids are
// validated non-empty so the two never collide.
type RunState struct {
	Day          int         `json:"day"`
	Seed         uint32      `json:"seed"`
	Passengers   []Passenger `json:"passengers"`
	AnomalyID    string      `json:"anomaly_id,omitempty"`
	DropoffOrder []string    `json:"dropoff_order"`
	PlayerGuess  string      `json:"player_guess,omitempty"`

	rng         *SeededStream
	initialized bool
}

// NewRunState creates the state for day. Initialize must be called before use.
func NewRunState(day int) (*RunState, error) {
	if day < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidDay, day)
	}
	seed := DaySeed(day)
	return &RunState{
		Day:          day,
		Seed:         seed,
		Passengers:   []Passenger{},
		DropoffOrder: []string{},
		rng:          NewSeededStream(seed),
	}, nil
}

// Initialize snapshots the roster, draws the anomaly and shuffles the dropoff
// order. The anomaly draw consumes the stream before the shuffle starts.
func (rs *RunState) Initialize(passengers []Passenger) error {
	if rs.initialized {
		return ErrAlreadyInitialized
	}
	if err := ValidateRoster(passengers); err != nil {
		return err
	}
	if rs.Day > 1 && len(passengers) == 0 {
		return fmt.Errorf("day %d: %w", rs.Day, ErrEmptyRoster)
	}

	rs.Passengers = make([]Passenger, len(passengers))
	copy(rs.Passengers, passengers)

	if rs.Day == 1 {
		rs.AnomalyID = ""
	} else {
		rs.chooseAnomaly()
	}
	rs.shuffleDropoffOrder()

	rs.initialized = true
	return nil
}

func (rs *RunState) chooseAnomaly() {
	idx := rs.rng.Intn(len(rs.Passengers))
	rs.AnomalyID = rs.Passengers[idx].ID
}

// shuffleDropoffOrder runs Fisher-Yates over the roster ids
func (rs *RunState) shuffleDropoffOrder() {
	order := make([]string, len(rs.Passengers))
	for i, p := range rs.Passengers {
		order[i] = p.ID
	}
	for i := len(order) - 1; i > 0; i-- {
		j := rs.rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	rs.DropoffOrder = order
}

// IsInitialized reports whether Initialize has succeeded
func (rs *RunState) IsInitialized() bool {
	return rs.initialized
}

// IsCorrect reports whether the player's guess matches the hidden anomaly.
// No guess is never correct.
func (rs *RunState) IsCorrect() bool {
	if rs.AnomalyID == "" {
		return rs.PlayerGuess == NoAnomalyGuess
	}
	return rs.PlayerGuess == rs.AnomalyID
}

// HasAnomaly reports whether this day has an anomaly
func (rs *RunState) HasAnomaly() bool {
	return rs.AnomalyID != ""
}

// GetPassenger returns the roster entry with id
func (rs *RunState) GetPassenger(id string) (Passenger, bool) {
	for _, p := range rs.Passengers {
		if p.ID == id {
			return p, true
		}
	}
	return Passenger{}, false
}

// GetAnomalyPassenger returns the anomaly, or false on a day without one
func (rs *RunState) GetAnomalyPassenger() (Passenger, bool) {
	if rs.AnomalyID == "" {
		return Passenger{}, false
	}
	return rs.GetPassenger(rs.AnomalyID)
}

// IsAnomaly reports whether id is the anomaly
func (rs *RunState) IsAnomaly(id string) bool {
	return rs.AnomalyID != "" && id == rs.AnomalyID
}

// SetGuess records the player's accusation. Pass NoAnomalyGuess to accuse nobody.
func (rs *RunState) SetGuess(id string) {
	rs.PlayerGuess = id
}

// RemoveFromDropoff drops id from the dropoff order, keeping the relative order
// of the rest. Returns false if id was not pending.
func (rs *RunState) RemoveFromDropoff(id string) bool {
	for i, pending := range rs.DropoffOrder {
		if pending == id {
			rs.DropoffOrder = append(rs.DropoffOrder[:i:i], rs.DropoffOrder[i+1:]...)
			return true
		}
	}
	return false
}

// PassengersAtStop returns the passengers boarding at stopID in roster order
func (rs *RunState) PassengersAtStop(stopID string) []Passenger {
	var result []Passenger
	for _, p := range rs.Passengers {
		if p.StopID == stopID {
			result = append(result, p)
		}
	}
	return result
}

// CorruptionLevel is the day's unease level, 1 through MaxCorruption
func (rs *RunState) CorruptionLevel() int {
	return min(rs.Day, MaxCorruption)
}

// RestoreRunState rebuilds a persisted run. The anomaly and full dropoff order
// are re-derived from the day's seed; dropoffOrder must be what is left of that
// order after removals.
func RestoreRunState(day int, passengers []Passenger, guess string, dropoffOrder []string) (*RunState, error) {
	rs, err := NewRunState(day)
	if err != nil {
		return nil, err
	}
	if err := rs.Initialize(passengers); err != nil {
		return nil, err
	}

	if !isSubsequence(dropoffOrder, rs.DropoffOrder) {
		return nil, fmt.Errorf("day %d: %w", day, ErrDropoffMismatch)
	}
	rs.DropoffOrder = append([]string{}, dropoffOrder...)
	rs.PlayerGuess = guess
	return rs, nil
}

// ValidateRoster checks passenger ids are usable as RunState keys
func ValidateRoster(passengers []Passenger) error {
	seen := make(map[string]bool, len(passengers))
	for i, p := range passengers {
		switch {
		case p.ID == "":
			return fmt.Errorf("passenger %d: %w", i, ErrEmptyPassengerID)
		case p.ID == NoAnomalyGuess:
			return fmt.Errorf("passenger %d: %w: %q", i, ErrReservedPassengerID, p.ID)
		case seen[p.ID]:
			return fmt.Errorf("passenger %d: %w: %q", i, ErrDuplicatePassenger, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// isSubsequence reports whether sub appears in full in the same relative order
func isSubsequence(sub, full []string) bool {
	j := 0
	for _, id := range full {
		if j < len(sub) && sub[j] == id {
			j++
		}
	}
	return j == len(sub)
}
