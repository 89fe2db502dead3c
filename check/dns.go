package check

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/optimode/mailprobe/types"
)

// MXLookup is the MX query a Resolver relies on. *net.Resolver,
// *dnscache.Cache and *dnsclient.Client all satisfy it.
type MXLookup interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// DNSConfig is the Resolver configuration.
type DNSConfig struct {
	Timeout time.Duration
}

// Resolver maps a domain to its preferred mail exchanger.
type Resolver struct {
	cfg    DNSConfig
	lookup MXLookup
}

// NewResolver creates a Resolver backed by the system resolver.
func NewResolver(cfg DNSConfig) *Resolver {
	return NewResolverWithLookup(cfg, &net.Resolver{})
}

// NewResolverWithLookup creates a Resolver with a custom MX lookup.
func NewResolverWithLookup(cfg DNSConfig, lookup MXLookup) *Resolver {
	return &Resolver{cfg: cfg, lookup: lookup}
}

// Resolve returns the host of the lowest-preference MX record of domain.
// Among records of equal preference the host that sorts first
// (case-insensitively) wins, whatever order the lookup returned. The error wraps types.ErrNoMailExchanger when
// the lookup fails, the domain does not exist, no record is published or the
// domain publishes a null MX.
func (r *Resolver) Resolve(ctx context.Context, domain string) (string, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	mxRecords, err := r.lookup.LookupMX(ctx, domain)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", types.ErrNoMailExchanger, domain, err)
	}

	host, ok := preferred(mxRecords)
	if !ok {
		return "", fmt.Errorf("%w: %s: no MX records found", types.ErrNoMailExchanger, domain)
	}
	return host, nil
}

// preferred picks the first usable host ordered by preference, then host
// name. System resolvers shuffle equal-preference records, so the order
// they come back in is not used. A null MX (host ".") marks a domain that accepts no mail at all.
func preferred(records []*net.MX) (string, bool) {
	var usable []*net.MX
	for _, mx := range records {
		if mx == nil {
			continue
		}
		if strings.TrimSuffix(mx.Host, ".") == "" {
			if len(records) == 1 {
				return "", false
			}
			continue
		}
		usable = append(usable, mx)
	}
	if len(usable) == 0 {
		return "", false
	}

	sort.Slice(usable, func(i, j int) bool {
		if usable[i].Pref != usable[j].Pref {
			return usable[i].Pref < usable[j].Pref
		}
		return hostKey(usable[i].Host) < hostKey(usable[j].Host)
	})
	return strings.TrimSuffix(usable[0].Host, "."), true
}

func hostKey(host string) string {
	return strings.ToLower(strings.TrimSuffix(host, "."))
}
