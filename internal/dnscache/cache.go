// Package dnscache provides a thread-safe, read-through TTL cache for DNS MX
// lookups. Concurrent lookups for the same domain are collapsed into one
// query. Failed lookups are never cached, and expired entries are swept at
// most once per TTL as new entries are stored.
package dnscache

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Resolver is the lookup the cache reads through to.
// *net.Resolver and *dnsclient.Client both satisfy it.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// Cache is a thread-safe DNS MX lookup cache.
type Cache struct {
	mu            sync.RWMutex
	entries       map[string]entry
	group         singleflight.Group
	cacheTTL      time.Duration
	lookupTimeout time.Duration
	resolver      Resolver
	now           func() time.Time
	lastSweep     time.Time
}

type entry struct {
	records []*net.MX
	expires time.Time
}

// New creates a DNS cache over the system resolver with the given lookup
// timeout and cache TTL.
func New(lookupTimeout, cacheTTL time.Duration) *Cache {
	return NewWithResolver(lookupTimeout, cacheTTL, &net.Resolver{})
}

// NewWithResolver creates a DNS cache reading through to r.
func NewWithResolver(lookupTimeout, cacheTTL time.Duration, r Resolver) *Cache {
	return &Cache{
		entries:       make(map[string]entry),
		cacheTTL:      cacheTTL,
		lookupTimeout: lookupTimeout,
		resolver:      r,
		now:           time.Now,
	}
}

// LookupMX returns MX records for the domain, using the cache when possible.
// The query itself is bounded by the cache's lookup timeout and is not
// cancelled when one of several waiting callers gives up.
func (c *Cache) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	c.mu.RLock()
	e, ok := c.entries[domain]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expires) {
		return copyMX(e.records), nil
	}

	ch := c.group.DoChan(domain, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.lookupTimeout)
		defer cancel()

		records, err := c.resolver.LookupMX(lookupCtx, domain)
		if err != nil {
			return nil, err
		}
		if c.cacheTTL > 0 && len(records) > 0 {
			now := c.now()
			c.mu.Lock()
			if now.Sub(c.lastSweep) >= c.cacheTTL {
				c.sweepLocked(now)
				c.lastSweep = now
			}
			c.entries[domain] = entry{records: records, expires: now.Add(c.cacheTTL)}
			c.mu.Unlock()
		}
		return records, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return copyMX(res.Val.([]*net.MX)), nil
	}
}

// Len returns the number of entries in the cache (for diagnostics).
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// sweepLocked drops expired entries. c.mu must be held for writing.
func (c *Cache) sweepLocked(now time.Time) {
	for domain, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, domain)
		}
	}
}

// copyMX returns a deep copy of MX records to prevent callers from
// mutating cached data (e.g., via sort.Slice).
func copyMX(records []*net.MX) []*net.MX {
	if records == nil {
		return nil
	}
	out := make([]*net.MX, len(records))
	for i, r := range records {
		cp := *r
		out[i] = &cp
	}
	return out
}
