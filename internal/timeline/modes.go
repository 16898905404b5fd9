package timeline

import "strconv"

// Timeline names used by the default configuration.
const (
	FlightMode = "flight_mode"
	NavState   = "nav_state"
)

var flightModes = map[int]string{
	0:  "Manual",
	1:  "Altitude",
	2:  "Position",
	3:  "Mission",
	4:  "Loiter",
	5:  "Return to Land",
	6:  "RC Recovery",
	7:  "Offboard",
	8:  "Stabilized",
	9:  "Rattitude",
	10: "Takeoff",
	11: "Land",
	12: "Follow Target",
	13: "Precision Land",
}

var navStates = map[int]string{
	0:  "Manual",
	1:  "Altitude",
	2:  "Position",
	3:  "Mission",
	4:  "Loiter",
	5:  "Return to Land",
	6:  "RC Recovery",
	7:  "Return to groundstation on data link loss",
	8:  "Land (engine fail)",
	9:  "Land (GPS fail)",
	10: "Acro",
	12: "Descend",
	13: "Termination",
	14: "Offboard",
	15: "Stabilized",
	16: "Rattitude",
	17: "Takeoff",
	18: "Land",
	19: "Follow Target",
	20: "Precision Land",
	21: "Orbit",
}

// FlightModeName returns the display name of a commander main_state code.
func FlightModeName(v float64) string { return lookup(flightModes, v) }

// NavStateName returns the display name of a vehicle_status nav_state code.
func NavStateName(v float64) string { return lookup(navStates, v) }

func lookup(names map[int]string, v float64) string {
	if v == ClosedMode {
		return "Closed"
	}
	if name, ok := names[int(v)]; ok && float64(int(v)) == v {
		return name
	}
	return "Unknown (" + strconv.FormatFloat(v, 'g', -1, 64) + ")"
}

// Names returns the mode naming function for a configured timeline name, or
// nil if the timeline has no display names.
func Names(timeline string) func(float64) string {
	switch timeline {
	case FlightMode:
		return FlightModeName
	case NavState:
		return NavStateName
	default:
		return nil
	}
}
