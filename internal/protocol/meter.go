package protocol

import "fmt"

// sMeterTable maps raw RM0 readings to S-meter labels. Readings between two
// entries take the lower label.
var sMeterTable = []struct {
	raw   int64
	label string
}{
	{0, "S0"},
	{20, "S1"},
	{40, "S3"},
	{53, "S4"},
	{75, "S5"},
	{88, "S6"},
	{110, "S7"},
	{155, "S9"},
	{165, "+10"},
	{190, "+20"},
	{220, "+40"},
	{255, "+60"},
}

// SMeterLabel converts a raw 0–255 meter reading into an S-unit label.
func SMeterLabel(raw int64) string {
	for i := len(sMeterTable) - 1; i >= 0; i-- {
		if raw >= sMeterTable[i].raw {
			if raw > 255 {
				return "S?"
			}
			return sMeterTable[i].label
		}
	}
	return "S?"
}

// SWRLabel converts a raw 0–255 meter reading into an SWR figure: 0–127 maps
// linearly onto 1.0–3.0 and 127–255 onto 3.0–99.9.
func SWRLabel(raw int64) string {
	v := float64(clamp(raw, 0, 255))
	var swr float64
	if v <= 127 {
		swr = 1.0 + (v/127.0)*2.0
	} else {
		swr = 3.0 + ((v-127)/128.0)*(99.9-3.0)
	}
	return fmt.Sprintf("%.1f", swr)
}

// FormatMHz renders a frequency in Hz as MHz with six decimals.
func FormatMHz(hz int64) string {
	return fmt.Sprintf("%.6f MHz", float64(hz)/1e6)
}

// FormatValue renders a decoded value for display according to its key.
func FormatValue(k Key, v int64) string {
	switch {
	case k.Kind() == KindFrequency:
		return FormatMHz(v)
	case k == KeyMeter:
		return fmt.Sprintf("%d (%s)", v, SMeterLabel(v))
	default:
		return fmt.Sprintf("%d", v)
	}
}
