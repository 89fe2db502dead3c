package parse

import (
	"strings"

	"golang.org/x/net/idna"
)

// Email is the internal representation of a candidate address.
// The check/ packages receive this as parameter.
type Email struct {
	Raw           string // the original, trimmed input
	Local         string // the part before @
	Domain        string // the part after @, ASCII/Punycode form (for DNS/SMTP)
	DomainUnicode string // the part after @, Unicode form (for display/typo detection)
	Valid         bool   // false if Raw fails the shape check
	Problem       string // why Valid is false
}

// NewEmail splits the given string into local part and domain and applies
// a coarse shape check: exactly one @, both sides non-empty, and a dot
// somewhere in the domain. No further RFC 5322 validation is done.
// Raw is always populated.
func NewEmail(raw string) Email {
	raw = strings.TrimSpace(raw)

	if problem := shapeProblem(raw); problem != "" {
		return Email{Raw: raw, Problem: problem}
	}

	atIdx := strings.IndexByte(raw, '@')
	return buildEmail(raw, raw[:atIdx], raw[atIdx+1:])
}

// shapeProblem returns a description of the shape violation, or "" if ok.
func shapeProblem(raw string) string {
	switch n := strings.Count(raw, "@"); {
	case n == 0:
		return "missing @"
	case n > 1:
		return "more than one @"
	}
	atIdx := strings.IndexByte(raw, '@')
	local, domain := raw[:atIdx], raw[atIdx+1:]
	if local == "" {
		return "empty local part"
	}
	if domain == "" {
		return "empty domain"
	}
	if !strings.Contains(domain, ".") {
		return "domain has no dot"
	}
	return ""
}

// buildEmail constructs an Email with IDNA domain handling.
// The Domain field is ASCII/Punycode when conversion succeeds,
// DomainUnicode is the human-readable Unicode form.
func buildEmail(raw, local, domain string) Email {
	domainLower := strings.ToLower(domain)
	ascii, unicode := convertDomain(domainLower)

	return Email{
		Raw:           raw,
		Local:         local,
		Domain:        ascii,
		DomainUnicode: unicode,
		Valid:         true,
	}
}

// convertDomain converts a domain to both ASCII/Punycode and Unicode forms.
// A domain that fails IDNA2008 conversion is returned unchanged in both
// forms; it already passed the shape check and the lookup will decide.
func convertDomain(domain string) (ascii, unicode string) {
	hasNonASCII := false
	for _, r := range domain {
		if r > 127 {
			hasNonASCII = true
			break
		}
	}

	if hasNonASCII {
		a, err := idna.Lookup.ToASCII(domain)
		if err != nil {
			return domain, domain
		}
		return a, domain
	}

	// Pure ASCII domain: try to get Unicode display form
	// (handles existing Punycode like xn--mnchen-3ya.de → münchen.de)
	u, err := idna.Display.ToUnicode(domain)
	if err != nil {
		u = domain
	}
	return domain, u
}
