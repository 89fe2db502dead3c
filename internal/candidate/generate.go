// Package candidate turns a person's name and a domain into the mailbox
// addresses most commonly used for that person.
package candidate

import "strings"

// Generate returns candidate addresses for first/last at domain, in a
// fixed order and without duplicates. All inputs are trimmed and
// lower-cased; if any of them is empty the result is nil.
func Generate(first, last, domain string) []string {
	f := strings.ToLower(strings.TrimSpace(first))
	l := strings.ToLower(strings.TrimSpace(last))
	d := strings.ToLower(strings.TrimSpace(domain))
	if f == "" || l == "" || d == "" {
		return nil
	}

	fi := string([]rune(f)[:1])
	li := string([]rune(l)[:1])

	locals := []string{
		f + "." + l,
		f + l,
		fi + l,
		f + li,
		f + "_" + l,
		f + "-" + l,
		l + "." + f,
		fi + "." + l,
	}

	seen := make(map[string]struct{}, len(locals))
	out := make([]string, 0, len(locals))
	for _, local := range locals {
		addr := local + "@" + d
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// SplitFullName returns the first and last whitespace-separated tokens of
// full. A single token yields an empty last name.
func SplitFullName(full string) (first, last string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], fields[len(fields)-1]
	}
}
