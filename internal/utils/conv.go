package utils

import (
	"strconv"
	"strings"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// ParseID parses a positive numeric path id.
func ParseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// ParseFlag reads query flags the way the web client sends them: "1" or "true".
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// ParseIDList parses repeated or comma separated ids, skipping junk.
func ParseIDList(values []string) []uint {
	var ids []uint
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if id, ok := ParseID(strings.TrimSpace(part)); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
