package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock converts an "HH:MM:SS" string to total seconds. Parsing is
// deliberately permissive: non-numeric or missing components read as 0 and
// components above 59 are accepted arithmetically. It never fails.
func ParseClock(text string) int {
	parts := strings.Split(text, ":")
	var h, m, s int
	if len(parts) > 0 {
		h, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		m, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		s, _ = strconv.Atoi(parts[2])
	}
	return h*3600 + m*60 + s
}

// FormatClock renders total seconds as "HH:MM:SS". Hours do not wrap at 24;
// negative input clamps to zero.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}
