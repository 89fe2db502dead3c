package mailprobe

import (
	"errors"

	"github.com/optimode/mailprobe/types"
)

var (
	// ErrUnavailable is returned when the SMTP channel cannot be used from
	// this environment (outbound port 25 blocked, connections refused or
	// reset, or a conversation timed out). It never describes a mailbox.
	ErrUnavailable = types.ErrUnavailable

	// ErrNoMailExchanger is wrapped by resolution failures. Verify* calls
	// never return it; affected addresses are reported as risky instead.
	ErrNoMailExchanger = types.ErrNoMailExchanger

	// ErrInvalidSMTPOptions is returned when WithSMTP is called
	// but HeloDomain or MailFrom is missing.
	ErrInvalidSMTPOptions = errors.New("mailprobe: SMTPOptions requires HeloDomain and MailFrom")

	// ErrSMTPNotConfigured is returned when a Verify* call is made
	// before WithSMTP.
	ErrSMTPNotConfigured = errors.New("mailprobe: SMTP probing not configured")
)

// UnavailableError is a re-export; use errors.As to read the reason.
type UnavailableError = types.UnavailableError
