package mailprobe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/optimode/mailprobe/check"
	"github.com/optimode/mailprobe/internal/candidate"
	"github.com/optimode/mailprobe/internal/dnscache"
	"github.com/optimode/mailprobe/internal/dnsclient"
	"github.com/optimode/mailprobe/internal/parse"
	"github.com/optimode/mailprobe/types"
)

// Verifier is the main fluent builder struct.
// Instantiate with the New() function and configure it before the first
// Verify* call. A configured Verifier is safe for concurrent use; each
// call keeps its own per-batch state.
type Verifier struct {
	dnsOpts    DNSOptions
	smtpOpts   *SMTPOptions
	domainOpts *DomainOptions
	lookup     MXLookup
	log        logrus.FieldLogger
	err        error // configuration error, returned on Verify*()

	once     sync.Once
	dnsCache *dnscache.Cache
	resolver *check.Resolver
	prober   *check.Prober
	advisor  *check.DomainAdvisor
}

// New creates a new Verifier with default DNS options. WithSMTP must be
// called before verifying anything.
func New() *Verifier {
	return &Verifier{
		dnsOpts: defaultDNSOptions(),
		log:     logrus.StandardLogger(),
	}
}

// WithDNS overrides the default DNSOptions. Zero fields keep their defaults.
func (v *Verifier) WithDNS(opts DNSOptions) *Verifier {
	def := defaultDNSOptions()
	if opts.Timeout == 0 {
		opts.Timeout = def.Timeout
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = def.CacheTTL
	}
	v.dnsOpts = opts
	return v
}

// WithLookup replaces the MX lookup (system resolver or Nameserver client).
// The shared cache, when enabled, still sits in front of it.
func (v *Verifier) WithLookup(lookup MXLookup) *Verifier {
	v.lookup = lookup
	return v
}

// WithSMTP configures the probe. SMTPOptions.HeloDomain and MailFrom are
// required.
func (v *Verifier) WithSMTP(opts SMTPOptions) *Verifier {
	if opts.HeloDomain == "" || opts.MailFrom == "" {
		v.err = ErrInvalidSMTPOptions
		return v
	}
	def := defaultSMTPOptions()
	if opts.Timeout == 0 {
		opts.Timeout = def.Timeout
	}
	if opts.Port == "" {
		opts.Port = def.Port
	}
	v.smtpOpts = &opts
	return v
}

// WithDomainHints adds advisory disposable/typo information to results.
// Hints never change a result's status or confidence.
func (v *Verifier) WithDomainHints(opts ...DomainOptions) *Verifier {
	o := defaultDomainOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	v.domainOpts = &o
	return v
}

// WithLogger sets the logger. Default: logrus.StandardLogger().
func (v *Verifier) WithLogger(log logrus.FieldLogger) *Verifier {
	if log != nil {
		v.log = log
	}
	return v
}

// build assembles the components once, on first use.
func (v *Verifier) build() {
	if v.err != nil {
		return
	}
	if v.smtpOpts == nil {
		v.err = ErrSMTPNotConfigured
		return
	}

	var lookup MXLookup = v.lookup
	if lookup == nil {
		if v.dnsOpts.Nameserver != "" {
			client := dnsclient.New(v.dnsOpts.Nameserver, v.dnsOpts.Timeout)
			v.log.WithField("nameserver", client.Server()).Debug("mx lookups pinned to nameserver")
			lookup = client
		} else {
			lookup = &net.Resolver{}
		}
	}
	if v.dnsOpts.CacheTTL > 0 {
		v.dnsCache = dnscache.NewWithResolver(v.dnsOpts.Timeout, v.dnsOpts.CacheTTL, lookup)
		lookup = v.dnsCache
	}
	v.resolver = check.NewResolverWithLookup(check.DNSConfig{Timeout: v.dnsOpts.Timeout}, lookup)

	dial := v.smtpOpts.Dial
	if dial == nil && v.smtpOpts.ProxyAddr != "" {
		d, err := check.SOCKS5Dial(v.smtpOpts.ProxyAddr, v.smtpOpts.ProxyUser, v.smtpOpts.ProxyPassword)
		if err != nil {
			v.err = fmt.Errorf("mailprobe: %w", err)
			return
		}
		dial = d
	}
	v.prober = check.NewProber(check.SMTPConfig{
		HeloDomain: v.smtpOpts.HeloDomain,
		MailFrom:   v.smtpOpts.MailFrom,
		Timeout:    v.smtpOpts.Timeout,
		Port:       v.smtpOpts.Port,
		Dial:       dial,
		Logger:     v.log,
	})

	if v.domainOpts != nil {
		v.advisor = check.NewDomainAdvisor(check.DomainConfig{
			CheckDisposable: v.domainOpts.CheckDisposable,
			CheckTypos:      v.domainOpts.CheckTypos,
			TypoThreshold:   v.domainOpts.TypoThreshold,
		})
	}
}

func (v *Verifier) ready() error {
	v.once.Do(v.build)
	return v.err
}

// Person identifies someone whose address is to be guessed.
type Person struct {
	FirstName string
	LastName  string
	Domain    string
}

// Candidates returns the addresses VerifyPerson would check for p.
func Candidates(p Person) []string {
	return candidate.Generate(p.FirstName, p.LastName, p.Domain)
}

// VerifyEmail verifies a single address. It behaves like a one-element
// VerifyBatch.
func (v *Verifier) VerifyEmail(ctx context.Context, email string) (Result, error) {
	results, err := v.VerifyBatch(ctx, []string{email})
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// VerifyPerson generates the candidate addresses for p and verifies them as
// one batch. An empty candidate set yields an empty result.
func (v *Verifier) VerifyPerson(ctx context.Context, p Person) ([]Result, error) {
	return v.VerifyBatch(ctx, Candidates(p))
}

// resolution is a per-batch memo entry.
type resolution struct {
	host string
	err  error
}

// VerifyBatch verifies emails one after another and returns their results
// in input order.
//
// Each distinct domain is resolved at most once per call; the memo,
// failures included, is discarded when the call returns. Addresses whose
// domain has no usable mail exchanger are reported as risky. The first
// ErrUnavailable aborts the whole call and no results are returned.
// Probing is sequential on purpose so remote servers see one connection at
// a time.
func (v *Verifier) VerifyBatch(ctx context.Context, emails []string) ([]Result, error) {
	if err := v.ready(); err != nil {
		return nil, err
	}

	memo := make(map[string]resolution)
	results := make([]Result, 0, len(emails))

	for i, raw := range emails {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := v.verify(ctx, parse.NewEmail(raw), memo)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				v.log.WithFields(logrus.Fields{
					"email":     raw,
					"index":     i,
					"remaining": len(emails) - i - 1,
				}).Warn("aborting batch: smtp channel unavailable")
			}
			return nil, fmt.Errorf("verifying %q: %w", raw, err)
		}
		results = append(results, res)
	}

	fields := logrus.Fields{
		"addresses": len(emails),
		"domains":   len(memo),
	}
	if v.dnsCache != nil {
		fields["mx_cache_entries"] = v.dnsCache.Len()
	}
	v.log.WithFields(fields).Debug("batch verified")
	return results, nil
}

// verify produces the result for one candidate. Only ErrUnavailable and
// context errors are returned.
func (v *Verifier) verify(ctx context.Context, email parse.Email, memo map[string]resolution) (Result, error) {
	res := Result{Email: email.Raw}

	if !email.Valid {
		res.Status, res.Confidence = types.StatusInvalid, types.ConfidenceNone
		res.Message = "invalid email format: " + email.Problem
		return res, nil
	}

	if v.advisor != nil {
		hint := v.advisor.Advise(email)
		res.Disposable, res.Suggestion = hint.Disposable, hint.Suggestion
	}

	r, ok := memo[email.Domain]
	if !ok {
		r.host, r.err = v.resolver.Resolve(ctx, email.Domain)
		if r.err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			v.log.WithFields(logrus.Fields{"domain": email.Domain, "error": r.err}).Debug("mx resolution failed")
		}
		memo[email.Domain] = r
	}
	if r.err != nil {
		res.Status, res.Confidence = types.StatusRisky, types.ConfidenceUnresolved
		res.Message = "could not resolve mail exchanger"
		return res, nil
	}
	res.MXHost = r.host

	verdict, err := v.prober.Probe(ctx, email.Local+"@"+email.Domain, r.host)
	if err != nil {
		return res, err
	}
	res.Status, res.Confidence = types.Outcome(verdict)
	return res, nil
}
