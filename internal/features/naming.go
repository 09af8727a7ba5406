package features

import (
	"strconv"
	"strings"
)

// splitCounterSuffix splits "name_3" into ("name", "3"). Names without a
// numeric suffix return ("name", "").
func splitCounterSuffix(name string) (base, counter string) {
	idx := strings.LastIndex(name, "_")
	if idx < 0 {
		return name, ""
	}
	suffix := name[idx+1:]
	if suffix == "" {
		return name, ""
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return name, ""
		}
	}
	return name[:idx], suffix
}

// incrementCounterSuffix produces the next name in the collision sequence:
// "x" -> "x_1" -> "x_2". Zero padding of an existing counter is preserved.
func incrementCounterSuffix(name string) string {
	base, counter := splitCounterSuffix(name)
	if counter == "" {
		return name + "_1"
	}
	n, _ := strconv.Atoi(counter)
	next := strconv.Itoa(n + 1)
	for len(next) < len(counter) {
		next = "0" + next
	}
	return base + "_" + next
}

// uniqueName increments the counter suffix until the name is unused.
func uniqueName(name string, taken map[string]string) string {
	for {
		if _, exists := taken[name]; !exists {
			return name
		}
		name = incrementCounterSuffix(name)
	}
}
