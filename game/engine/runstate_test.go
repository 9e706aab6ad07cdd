package engine

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"testing"
)

func roster(ids ...string) []Passenger {
	passengers := make([]Passenger, len(ids))
	for i, id := range ids {
		passengers[i] = Passenger{ID: id, DisplayName: "Passenger " + id, SeatIndex: i, StopID: "stop"}
	}
	return passengers
}

func mustDay(t *testing.T, day int, passengers []Passenger) *RunState {
	t.Helper()
	rs, err := NewDay(day, passengers)
	if err != nil {
		t.Fatalf("Failed to build day %d: %v", day, err)
	}
	return rs
}

func TestNewRunState(t *testing.T) {
	rs, err := NewRunState(3)
	if err != nil {
		t.Fatalf("Failed to create run state: %v", err)
	}
	if rs.Day != 3 {
		t.Errorf("Expected day 3, got %d", rs.Day)
	}
	if rs.Seed != BaseSeed+3 {
		t.Errorf("Expected seed %d, got %d", BaseSeed+3, rs.Seed)
	}
	if rs.IsInitialized() {
		t.Error("Expected run state not to be initialized yet")
	}
	if rs.PlayerGuess != "" || rs.AnomalyID != "" {
		t.Error("Expected no guess and no anomaly before initialize")
	}
}

func TestNewRunState_InvalidDay(t *testing.T) {
	for _, day := range []int{0, -1} {
		_, err := NewRunState(day)
		if !errors.Is(err, ErrInvalidDay) {
			t.Errorf("day %d: expected ErrInvalidDay, got %v", day, err)
		}
	}
}

func TestRunState_GoldenDays(t *testing.T) {
	tests := []struct {
		day     int
		ids     []string
		anomaly string
		order   []string
	}{
		{1, []string{"A", "B", "C"}, "", []string{"A", "C", "B"}},
		{2, []string{"A", "B", "C"}, "B", []string{"C", "B", "A"}},
		{3, []string{"A", "B", "C"}, "A", []string{"A", "C", "B"}},
		{4, []string{"A", "B", "C"}, "C", []string{"A", "C", "B"}},
		{5, []string{"A", "B", "C"}, "A", []string{"A", "B", "C"}},
		{6, []string{"A", "B", "C"}, "B", []string{"C", "B", "A"}},
		{2, []string{"grandma", "man", "kid", "dog"}, "kid", []string{"man", "dog", "kid", "grandma"}},
		{3, []string{"grandma", "man", "kid", "dog"}, "grandma", []string{"grandma", "dog", "kid", "man"}},
		{6, []string{"grandma", "man", "kid", "dog"}, "man", []string{"man", "dog", "kid", "grandma"}},
		{2, []string{"A", "B", "C", "D", "E", "F"}, "D", []string{"C", "A", "D", "F", "E", "B"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("day %d with %d passengers", tt.day, len(tt.ids)), func(t *testing.T) {
			rs := mustDay(t, tt.day, roster(tt.ids...))
			if rs.AnomalyID != tt.anomaly {
				t.Errorf("Expected anomaly %q, got %q", tt.anomaly, rs.AnomalyID)
			}
			if !reflect.DeepEqual(rs.DropoffOrder, tt.order) {
				t.Errorf("Expected dropoff order %v, got %v", tt.order, rs.DropoffOrder)
			}
		})
	}
}

func TestRunState_Determinism(t *testing.T) {
	passengers := roster("p1", "p2", "p3", "p4", "p5", "p6", "p7")
	for day := 1; day <= 10; day++ {
		a := mustDay(t, day, passengers)
		b := mustDay(t, day, passengers)
		if a.AnomalyID != b.AnomalyID {
			t.Errorf("day %d: anomaly differs: %q vs %q", day, a.AnomalyID, b.AnomalyID)
		}
		if !reflect.DeepEqual(a.DropoffOrder, b.DropoffOrder) {
			t.Errorf("day %d: dropoff order differs: %v vs %v", day, a.DropoffOrder, b.DropoffOrder)
		}
	}
}

func TestRunState_DayOneHasNoAnomaly(t *testing.T) {
	for size := 0; size <= 8; size++ {
		ids := make([]string, size)
		for i := range ids {
			ids[i] = fmt.Sprintf("p%d", i)
		}
		rs := mustDay(t, 1, roster(ids...))
		if rs.HasAnomaly() {
			t.Errorf("size %d: expected no anomaly on day 1, got %q", size, rs.AnomalyID)
		}
		if _, ok := rs.GetAnomalyPassenger(); ok {
			t.Errorf("size %d: expected GetAnomalyPassenger to report none", size)
		}
	}
}

func TestRunState_AnomalyMembership(t *testing.T) {
	for size := 1; size <= 9; size++ {
		ids := make([]string, size)
		for i := range ids {
			ids[i] = fmt.Sprintf("p%d", i)
		}
		for day := 2; day <= MaxDay; day++ {
			rs := mustDay(t, day, roster(ids...))
			p, ok := rs.GetAnomalyPassenger()
			if !ok {
				t.Fatalf("size %d day %d: expected an anomaly", size, day)
			}
			if p.ID != rs.AnomalyID || !rs.IsAnomaly(p.ID) {
				t.Errorf("size %d day %d: anomaly passenger mismatch", size, day)
			}
		}
	}
}

func TestRunState_PermutationProperty(t *testing.T) {
	for size := 0; size <= 12; size++ {
		ids := make([]string, size)
		for i := range ids {
			ids[i] = fmt.Sprintf("p%02d", i)
		}
		for day := 1; day <= MaxDay; day++ {
			if size == 0 && day > 1 {
				continue
			}
			rs := mustDay(t, day, roster(ids...))
			got := append([]string{}, rs.DropoffOrder...)
			sort.Strings(got)
			if !reflect.DeepEqual(got, ids) && !(size == 0 && len(got) == 0) {
				t.Errorf("size %d day %d: dropoff order %v is not a permutation of %v", size, day, rs.DropoffOrder, ids)
			}
		}
	}
}

func TestRunState_EmptyRosterOnAnomalyDay(t *testing.T) {
	rs, _ := NewRunState(2)
	err := rs.Initialize(nil)
	if !errors.Is(err, ErrEmptyRoster) {
		t.Fatalf("Expected ErrEmptyRoster, got %v", err)
	}
	if rs.IsInitialized() {
		t.Error("Expected failed initialize to leave the state uninitialized")
	}
}

func TestRunState_InitializeTwice(t *testing.T) {
	rs := mustDay(t, 2, roster("A", "B"))
	if err := rs.Initialize(roster("A", "B")); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("Expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestRunState_InvalidRoster(t *testing.T) {
	tests := []struct {
		name       string
		passengers []Passenger
		want       error
	}{
		{"empty id", []Passenger{{ID: ""}}, ErrEmptyPassengerID},
		{"reserved id", []Passenger{{ID: NoAnomalyGuess}}, ErrReservedPassengerID},
		{"duplicate id", []Passenger{{ID: "A"}, {ID: "A"}}, ErrDuplicatePassenger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, _ := NewRunState(2)
			if err := rs.Initialize(tt.passengers); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRunState_RosterIsSnapshot(t *testing.T) {
	passengers := roster("A", "B", "C")
	rs := mustDay(t, 2, passengers)

	passengers[0].ID = "Z"
	passengers[1].DisplayName = "changed"

	if rs.Passengers[0].ID != "A" {
		t.Error("Expected roster snapshot to be independent of the caller's slice")
	}
	if p, _ := rs.GetPassenger("B"); p.DisplayName != "Passenger B" {
		t.Error("Expected passenger data to be copied")
	}
}

func TestRunState_IsCorrect(t *testing.T) {
	tests := []struct {
		name    string
		anomaly string
		guess   string
		want    bool
	}{
		{"no anomaly, trust everyone", "", NoAnomalyGuess, true},
		{"no anomaly, no guess", "", "", false},
		{"no anomaly, accuse passenger", "", "A", false},
		{"anomaly, correct guess", "B", "B", true},
		{"anomaly, wrong guess", "B", "A", false},
		{"anomaly, trust everyone", "B", NoAnomalyGuess, false},
		{"anomaly, no guess", "B", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := &RunState{Day: 3, AnomalyID: tt.anomaly, PlayerGuess: tt.guess}
			if got := rs.IsCorrect(); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRunState_DayOneTrustEveryone(t *testing.T) {
	rs := mustDay(t, 1, roster("A", "B", "C"))
	rs.SetGuess(NoAnomalyGuess)
	if !rs.IsCorrect() {
		t.Error("Expected trusting everyone on day 1 to be correct")
	}
}

func TestRunState_GetPassenger(t *testing.T) {
	rs := mustDay(t, 1, roster("A", "B"))

	p, ok := rs.GetPassenger("B")
	if !ok || p.ID != "B" {
		t.Errorf("Expected to find passenger B, got %+v (%v)", p, ok)
	}

	if _, ok := rs.GetPassenger("missing"); ok {
		t.Error("Expected unknown passenger not to be found")
	}
}

func TestRunState_IsAnomaly(t *testing.T) {
	day1 := mustDay(t, 1, roster("A", "B", "C"))
	for _, id := range []string{"A", "B", "C", "", NoAnomalyGuess} {
		if day1.IsAnomaly(id) {
			t.Errorf("Expected %q not to be an anomaly on day 1", id)
		}
	}

	day2 := mustDay(t, 2, roster("A", "B", "C"))
	if !day2.IsAnomaly("B") {
		t.Error("Expected B to be the day 2 anomaly")
	}
	if day2.IsAnomaly("A") {
		t.Error("Expected A not to be the day 2 anomaly")
	}
}

func TestRunState_RemoveFromDropoff(t *testing.T) {
	rs := mustDay(t, 2, roster("A", "B", "C"))
	original := append([]string{}, rs.DropoffOrder...)

	if !rs.RemoveFromDropoff("B") {
		t.Fatal("Expected B to be removed")
	}
	if rs.RemoveFromDropoff("B") {
		t.Error("Expected second removal to report false")
	}

	want := []string{}
	for _, id := range original {
		if id != "B" {
			want = append(want, id)
		}
	}
	if !reflect.DeepEqual(rs.DropoffOrder, want) {
		t.Errorf("Expected %v, got %v", want, rs.DropoffOrder)
	}
	if rs.AnomalyID != "B" {
		t.Error("Expected anomaly to stay fixed after dropoff removal")
	}
}

func TestRunState_PassengersAtStop(t *testing.T) {
	passengers := []Passenger{
		{ID: "a", StopID: "north"},
		{ID: "b", StopID: "south"},
		{ID: "c", StopID: "north"},
	}
	rs := mustDay(t, 1, passengers)

	north := rs.PassengersAtStop("north")
	if len(north) != 2 || north[0].ID != "a" || north[1].ID != "c" {
		t.Errorf("Expected [a c] at north, got %+v", north)
	}
	if len(rs.PassengersAtStop("east")) != 0 {
		t.Error("Expected nobody at an unknown stop")
	}
}

func TestRunState_CorruptionLevel(t *testing.T) {
	for day, want := range map[int]int{1: 1, 3: 3, 6: 6, 9: 6} {
		rs, _ := NewRunState(day)
		if got := rs.CorruptionLevel(); got != want {
			t.Errorf("day %d: expected corruption %d, got %d", day, want, got)
		}
	}
}

func TestRestoreRunState(t *testing.T) {
	passengers := roster("A", "B", "C")

	t.Run("restores anomaly and remaining order", func(t *testing.T) {
		rs, err := RestoreRunState(2, passengers, "A", []string{"C", "B"})
		if err != nil {
			t.Fatalf("Failed to restore: %v", err)
		}
		if rs.AnomalyID != "B" {
			t.Errorf("Expected anomaly B, got %q", rs.AnomalyID)
		}
		if rs.PlayerGuess != "A" {
			t.Errorf("Expected guess A, got %q", rs.PlayerGuess)
		}
		if !reflect.DeepEqual(rs.DropoffOrder, []string{"C", "B"}) {
			t.Errorf("Expected [C B], got %v", rs.DropoffOrder)
		}
	})

	t.Run("rejects reordered dropoff", func(t *testing.T) {
		_, err := RestoreRunState(2, passengers, "", []string{"A", "C"})
		if !errors.Is(err, ErrDropoffMismatch) {
			t.Errorf("Expected ErrDropoffMismatch, got %v", err)
		}
	})

	t.Run("rejects unknown ids", func(t *testing.T) {
		_, err := RestoreRunState(2, passengers, "", []string{"X"})
		if !errors.Is(err, ErrDropoffMismatch) {
			t.Errorf("Expected ErrDropoffMismatch, got %v", err)
		}
	})
}
