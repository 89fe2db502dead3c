// Package mailprobe estimates whether email addresses are deliverable by
// resolving the domain's mail exchanger and running a partial SMTP
// conversation (HELO, MAIL FROM, RCPT TO, QUIT) against it. No message is
// ever sent.
//
// Basic usage:
//
//	v := mailprobe.New().WithSMTP(mailprobe.SMTPOptions{
//	    HeloDomain: "myapp.com",
//	    MailFrom:   "verify@myapp.com",
//	})
//	results, err := v.VerifyBatch(ctx, []string{"john@example.org"})
//	if errors.Is(err, mailprobe.ErrUnavailable) {
//	    // port 25 is not usable from here; nothing was learned
//	}
//
// Each Result carries a status (valid, invalid, risky) and a confidence in
// [0,100]. A batch either yields one Result per input, in input order, or
// fails as a whole.
package mailprobe

import (
	"github.com/optimode/mailprobe/check"
	"github.com/optimode/mailprobe/types"
)

// Status is a re-export from the types package so that consumers
// don't need to import the types package directly.
type Status = types.Status

// Verdict is a re-export.
type Verdict = types.Verdict

// DialFunc is a re-export.
type DialFunc = check.DialFunc

// MXLookup is a re-export.
type MXLookup = check.MXLookup

// Status and verdict constants re-exported.
const (
	StatusValid   = types.StatusValid
	StatusInvalid = types.StatusInvalid
	StatusRisky   = types.StatusRisky

	Accepted      = types.Accepted
	Rejected      = types.Rejected
	Indeterminate = types.Indeterminate
)
