// Package dnsclient queries MX records from one fixed nameserver instead of
// the system resolver. It satisfies the same LookupMX signature as
// *net.Resolver so either can back the mail exchanger lookup.
package dnsclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// Client sends MX queries to a single nameserver.
type Client struct {
	server string
	client *dns.Client
}

// New creates a client for nameserver, given as "host" or "host:port".
// Port 53 is assumed when none is given.
func New(nameserver string, timeout time.Duration) *Client {
	if _, _, err := net.SplitHostPort(nameserver); err != nil {
		nameserver = net.JoinHostPort(nameserver, "53")
	}
	return &Client{
		server: nameserver,
		client: &dns.Client{Timeout: timeout},
	}
}

// Server returns the nameserver address queries are sent to.
func (c *Client) Server() string { return c.server }

// LookupMX returns the MX records for name in answer order.
// NXDOMAIN and failed responses are reported as *net.DNSError.
func (c *Client) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), dns.TypeMX)
	m.RecursionDesired = true

	in, _, err := c.client.ExchangeContext(ctx, m, c.server)
	if err != nil {
		return nil, &net.DNSError{Err: err.Error(), Name: name, Server: c.server, IsTimeout: isTimeout(err)}
	}

	switch in.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, &net.DNSError{Err: "no such host", Name: name, Server: c.server, IsNotFound: true}
	default:
		return nil, &net.DNSError{
			Err:    fmt.Sprintf("server answered %s", dns.RcodeToString[in.Rcode]),
			Name:   name,
			Server: c.server,
		}
	}

	var out []*net.MX
	for _, rr := range in.Answer {
		if mx, ok := rr.(*dns.MX); ok {
			out = append(out, &net.MX{Host: mx.Mx, Pref: mx.Preference})
		}
	}
	if len(out) == 0 {
		return nil, &net.DNSError{Err: "no MX records", Name: name, Server: c.server, IsNotFound: true}
	}
	return out, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
