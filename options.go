package mailprobe

import "time"

// DNSOptions configures mail exchanger resolution.
type DNSOptions struct {
	// Timeout is the maximum time for one MX lookup. Default: 5s
	Timeout time.Duration
	// Nameserver, when set ("1.1.1.1" or "10.0.0.2:53"), is queried
	// directly instead of the system resolver.
	Nameserver string
	// CacheTTL is how long successful lookups are shared between calls.
	// Default: 5m. Negative disables the shared cache; lookups are then
	// only deduplicated within one batch.
	CacheTTL time.Duration
}

func defaultDNSOptions() DNSOptions {
	return DNSOptions{
		Timeout:  5 * time.Second,
		CacheTTL: 5 * time.Minute,
	}
}

// DomainOptions configures the advisory domain hints.
type DomainOptions struct {
	// CheckDisposable flags known disposable domains. Default: true
	CheckDisposable bool
	// CheckTypos suggests corrections for close-match provider domains. Default: true
	CheckTypos bool
	// TypoThreshold is the Levenshtein distance threshold for typo detection. Default: 2
	TypoThreshold int
}

func defaultDomainOptions() DomainOptions {
	return DomainOptions{
		CheckDisposable: true,
		CheckTypos:      true,
		TypoThreshold:   2,
	}
}

// SMTPOptions configures the SMTP probe.
type SMTPOptions struct {
	// HeloDomain is the identity sent with HELO. Required, e.g. "myapp.com"
	HeloDomain string
	// MailFrom is the address sent with MAIL FROM. Required, e.g. "verify@myapp.com"
	MailFrom string
	// Timeout covers one whole conversation, connect included. Default: 8s
	Timeout time.Duration
	// Port is the SMTP port. Default: 25
	Port string
	// ProxyAddr routes probes through a SOCKS5 proxy ("host:port").
	ProxyAddr     string
	ProxyUser     string
	ProxyPassword string
	// Dial overrides how connections are opened. Takes precedence over ProxyAddr.
	Dial DialFunc
}

func defaultSMTPOptions() SMTPOptions {
	return SMTPOptions{
		Timeout: 8 * time.Second,
		Port:    "25",
	}
}
