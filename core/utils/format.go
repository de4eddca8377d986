package utils

import "fmt"

// FormatDuration renders a duration in seconds as "m:ss". Unknown
// durations render as "0:00".
func FormatDuration(totalSeconds *int) string {
	if totalSeconds == nil || *totalSeconds < 0 {
		return "0:00"
	}
	m := *totalSeconds / 60
	s := *totalSeconds % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
