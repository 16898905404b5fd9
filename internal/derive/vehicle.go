package derive

import (
	"fmt"

	"github.com/rzbill/flightreview/internal/dataset"
)

var mavTypes = map[int64]string{
	0:  "Generic",
	1:  "Fixed Wing",
	2:  "Quadrotor",
	3:  "Coaxial helicopter",
	4:  "Normal helicopter with tail rotor",
	5:  "Ground installation",
	6:  "Ground Control Station",
	7:  "Airship",
	8:  "Free balloon",
	9:  "Rocket",
	10: "Ground Rover",
	11: "Surface Vessel",
	12: "Submarine",
	13: "Hexarotor",
	14: "Octorotor",
	15: "Tricopter",
	16: "Flapping wing",
	17: "Kite",
	18: "Onboard companion controller",
	19: "Two-rotor VTOL",
	20: "Quad-rotor VTOL",
	21: "Tiltrotor VTOL",
}

// VehicleType names the airframe from the MAV_TYPE parameter. It returns ""
// when the parameter is absent.
func VehicleType(l *dataset.Log) string {
	v, ok := l.InitialParams["MAV_TYPE"]
	if !ok {
		return ""
	}
	var code int64
	switch n := v.(type) {
	case int32:
		code = int64(n)
	case int64:
		code = n
	case float32:
		code = int64(n)
	default:
		return ""
	}
	if name, ok := mavTypes[code]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (%d)", code)
}

// SoftwareVersion returns the firmware git hash and release tag recorded in
// the info section, if any.
func SoftwareVersion(l *dataset.Log) string {
	hash := l.InfoString("ver_sw")
	if len(hash) > 8 {
		hash = hash[:8]
	}
	if rel := l.InfoString("ver_sw_release_str"); rel != "" {
		if hash == "" {
			return rel
		}
		return rel + " (" + hash + ")"
	}
	return hash
}

// HardwareVersion returns the board name recorded in the info section.
func HardwareVersion(l *dataset.Log) string { return l.InfoString("ver_hw") }
