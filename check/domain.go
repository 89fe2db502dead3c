package check

import (
	"strings"

	"github.com/optimode/mailprobe/internal/disposable"
	"github.com/optimode/mailprobe/internal/levenshtein"
	"github.com/optimode/mailprobe/internal/parse"
)

// DomainConfig is the domain hint configuration.
type DomainConfig struct {
	CheckDisposable bool
	CheckTypos      bool
	TypoThreshold   int
}

// DomainHint is advisory information about an address's domain.
// It never changes the status or confidence of a result.
type DomainHint struct {
	Disposable bool
	Suggestion string
}

// DomainAdvisor detects disposable domains and likely typos.
type DomainAdvisor struct {
	cfg            DomainConfig
	knownProviders []string // known major email providers for typo detection
}

// defaultKnownProviders is the list of known major email providers.
// If a domain is within TypoThreshold distance from one of these,
// it is offered as a suggestion.
var defaultKnownProviders = []string{
	"gmail.com", "googlemail.com",
	"yahoo.com", "yahoo.co.uk", "yahoo.fr", "yahoo.de",
	"outlook.com", "hotmail.com", "hotmail.co.uk", "live.com",
	"icloud.com", "me.com", "mac.com",
	"protonmail.com", "proton.me",
	"aol.com",
	"zoho.com",
	"yandex.com", "yandex.ru",
	"mail.com",
	"gmx.com", "gmx.net", "gmx.de",
	"fastmail.com",
	"tutanota.com",
}

// NewDomainAdvisor creates a DomainAdvisor.
func NewDomainAdvisor(cfg DomainConfig) *DomainAdvisor {
	return &DomainAdvisor{
		cfg:            cfg,
		knownProviders: defaultKnownProviders,
	}
}

// Advise returns the hints for a well-shaped address. Malformed addresses
// get no hints.
func (a *DomainAdvisor) Advise(email parse.Email) DomainHint {
	var hint DomainHint
	if !email.Valid {
		return hint
	}

	if a.cfg.CheckDisposable {
		// the list is ASCII
		hint.Disposable = disposable.IsDisposable(strings.ToLower(email.Domain))
	}
	if a.cfg.CheckTypos && !hint.Disposable {
		hint.Suggestion = a.findTypoSuggestion(strings.ToLower(email.DomainUnicode))
	}
	return hint
}

// findTypoSuggestion finds the closest known provider.
// If the distance is <= TypoThreshold and the domain is not an exact match,
// it returns the suggested domain. Otherwise returns an empty string.
func (a *DomainAdvisor) findTypoSuggestion(domain string) string {
	bestDist := a.cfg.TypoThreshold + 1
	bestMatch := ""

	for _, provider := range a.knownProviders {
		if domain == provider {
			return ""
		}
		dist, ok := levenshtein.Within(domain, provider, a.cfg.TypoThreshold)
		if ok && dist < bestDist {
			bestDist = dist
			bestMatch = provider
		}
	}

	return bestMatch
}
