package disposable

import (
	_ "embed"
	"strings"
)

//go:embed list.txt
var rawList string

var disposableSet = parseList(rawList)

// parseList reads one domain per line; blank lines and # comments are skipped.
func parseList(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[strings.ToLower(line)] = struct{}{}
	}
	return set
}
