// Package derive adds values computed from decoded topics: Euler angles from
// attitude quaternions and vehicle descriptors from parameters and info.
package derive

import (
	"fmt"
	"math"

	"github.com/rzbill/flightreview/internal/dataset"
)

// quaternionSources maps attitude topics to the quaternion field prefix they
// carry and the suffix appended to the derived angle names.
var quaternionSources = []struct {
	topic, field, suffix string
}{
	{"vehicle_attitude", "q", ""},
	{"vehicle_attitude_groundtruth", "q", ""},
	{"vehicle_vision_attitude", "q", ""},
	{"vehicle_attitude_setpoint", "q_d", "_d"},
}

// AddRollPitchYaw adds roll, pitch and yaw columns (radians, float32) to
// every instance of the known attitude topics. Topics without the quaternion
// fields, or that already carry any of the angle names, are left alone.
func AddRollPitchYaw(l *dataset.Log) error {
	for _, src := range quaternionSources {
		for _, t := range l.TopicsNamed(src.topic) {
			if err := addEuler(t, src.field, src.suffix); err != nil {
				return fmt.Errorf("topic %s: %w", t.Key, err)
			}
		}
	}
	return nil
}

func addEuler(t *dataset.Topic, field, suffix string) error {
	var q [4]dataset.Column
	for i := range q {
		c, ok := t.Column(fmt.Sprintf("%s[%d]", field, i))
		if !ok {
			return nil
		}
		q[i] = c
	}
	for _, name := range []string{"roll", "pitch", "yaw"} {
		if _, ok := t.Column(name + suffix); ok {
			return nil
		}
	}
	n := t.Len()
	roll := make([]float32, n)
	pitch := make([]float32, n)
	yaw := make([]float32, n)
	for i := 0; i < n; i++ {
		var v [4]float64
		for j := range q {
			v[j], _ = q[j].Float(i)
		}
		r, p, y := Euler(v[0], v[1], v[2], v[3])
		roll[i], pitch[i], yaw[i] = float32(r), float32(p), float32(y)
	}
	for _, c := range []dataset.Column{
		dataset.NewColumn("roll"+suffix, roll),
		dataset.NewColumn("pitch"+suffix, pitch),
		dataset.NewColumn("yaw"+suffix, yaw),
	} {
		if err := t.Table.AddColumn(c); err != nil {
			return err
		}
	}
	return nil
}

// Euler converts a unit quaternion (w, x, y, z) to roll, pitch and yaw in
// radians using the aerospace ZYX convention.
func Euler(w, x, y, z float64) (roll, pitch, yaw float64) {
	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	s := 2 * (w*y - z*x)
	// Rounding can push |s| just past 1 near gimbal lock.
	s = math.Max(-1, math.Min(1, s))
	pitch = math.Asin(s)
	yaw = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	return roll, pitch, yaw
}
