package service

import (
	"strings"

	"mintwatch/internal/services/watcher/domain"
)

// DefaultLogMarker is the log line substring that marks a token creation
const DefaultLogMarker = "Program log: Create"

// IsRelevant reports whether ev is a successful transaction whose logs carry the default marker
func IsRelevant(ev domain.RawLogEvent) bool { return matches(ev, DefaultLogMarker) }

func matches(ev domain.RawLogEvent, marker string) bool {
	if ev.Err != nil || len(ev.Logs) == 0 {
		return false
	}
	for _, line := range ev.Logs {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}
