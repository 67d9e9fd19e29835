package jdk

import (
	"sort"
	"strconv"
	"strings"
)

// ParseMajorVersion extracts the feature release from a Java version string
func ParseMajorVersion(version string) int {
	// Handle old format: 1.8.0_xxx -> 8
	if strings.HasPrefix(version, "1.") {
		parts := strings.Split(version, ".")
		if len(parts) >= 2 {
			v, _ := strconv.Atoi(parts[1])
			return v
		}
	}

	// New format: 17.0.1+12 -> 17, 21-ea -> 21
	end := strings.IndexFunc(version, func(r rune) bool { return r < '0' || r > '9' })
	if end == -1 {
		end = len(version)
	}
	v, _ := strconv.Atoi(version[:end])
	return v
}

// normalizeMajors keeps versions >= min, sorted ascending without duplicates
func normalizeMajors(in []int, min int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, v := range in {
		if v < min || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
