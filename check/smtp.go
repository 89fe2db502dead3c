package check

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"

	"github.com/optimode/mailprobe/internal/smtpconn"
	"github.com/optimode/mailprobe/types"
)

// State is a step of the probe conversation.
type State int

const (
	Connecting State = iota
	AwaitGreeting
	AwaitHeloAck
	AwaitMailAck
	AwaitRcptAck
	Terminal
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case AwaitGreeting:
		return "await-greeting"
	case AwaitHeloAck:
		return "await-helo-ack"
	case AwaitMailAck:
		return "await-mail-ack"
	case AwaitRcptAck:
		return "await-rcpt-ack"
	case Terminal:
		return "terminal"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Advance returns the state that follows s once a complete reply with the
// given code has been received. The verdict is only meaningful when the
// returned state is Terminal. Replies before RCPT never stop the
// conversation, whatever their code.
func Advance(s State, code int) (State, types.Verdict) {
	switch s {
	case AwaitGreeting:
		return AwaitHeloAck, types.Indeterminate
	case AwaitHeloAck:
		return AwaitMailAck, types.Indeterminate
	case AwaitMailAck:
		return AwaitRcptAck, types.Indeterminate
	case AwaitRcptAck:
		return Terminal, rcptVerdict(code)
	default:
		return Terminal, types.Indeterminate
	}
}

func rcptVerdict(code int) types.Verdict {
	switch {
	case code >= 200 && code < 300:
		return types.Accepted
	case code == 550, code == 551, code == 553:
		return types.Rejected
	default:
		return types.Indeterminate
	}
}

// DialFunc opens the transport to an MX host.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// SMTPConfig is the Prober configuration.
type SMTPConfig struct {
	HeloDomain string
	MailFrom   string
	// Timeout covers the whole conversation, dial included.
	Timeout time.Duration
	Port    string
	// Dial is injectable for testing and proxying. Defaults to net.Dialer.
	Dial   DialFunc
	Logger logrus.FieldLogger
}

// Prober runs the HELO / MAIL FROM / RCPT TO dialogue against an MX host
// and stops before any message data would be sent.
type Prober struct {
	cfg SMTPConfig
	log logrus.FieldLogger
}

// NewProber creates a Prober. Zero values fall back to an 8s timeout and
// port 25.
func NewProber(cfg SMTPConfig) *Prober {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.Port == "" {
		cfg.Port = "25"
	}
	if cfg.Dial == nil {
		d := &net.Dialer{}
		cfg.Dial = d.DialContext
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Prober{cfg: cfg, log: log}
}

// SOCKS5Dial returns a DialFunc that reaches MX hosts through a SOCKS5
// proxy, for hosts whose own outbound port 25 is blocked.
func SOCKS5Dial(proxyAddr, user, password string) (DialFunc, error) {
	var auth *proxy.Auth
	if user != "" || password != "" {
		auth = &proxy.Auth{User: user, Password: password}
	}
	d, err := proxy.SOCKS5("tcp", proxyAddr, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 dialer %s: %w", proxyAddr, err)
	}
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext, nil
	}
	return func(_ context.Context, network, address string) (net.Conn, error) {
		return d.Dial(network, address)
	}, nil
}

// Probe asks host whether it would accept mail for address.
//
// It returns a verdict for every outcome that says something about the
// mailbox, including the inconclusive ones. It returns an error wrapping
// types.ErrUnavailable when the channel itself is unusable: the
// conversation timed out, or the connection was refused, reset or found
// unreachable. If ctx is cancelled, ctx.Err() is returned.
func (p *Prober) Probe(ctx context.Context, address, host string) (types.Verdict, error) {
	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	log := p.log.WithFields(logrus.Fields{"email": address, "mx_host": host})
	target := net.JoinHostPort(host, p.cfg.Port)

	netConn, err := p.cfg.Dial(probeCtx, "tcp", target)
	if err != nil {
		return p.failure(ctx, log, host, Connecting, err)
	}

	c := smtpconn.New(netConn)
	if deadline, ok := probeCtx.Deadline(); ok {
		_ = c.SetDeadline(deadline)
	}
	// Unblock pending reads when the caller cancels before the deadline.
	stop := context.AfterFunc(probeCtx, func() { _ = c.SetDeadline(time.Now()) })

	commands := map[State]string{
		AwaitHeloAck: "HELO " + p.cfg.HeloDomain,
		AwaitMailAck: "MAIL FROM:<" + p.cfg.MailFrom + ">",
		AwaitRcptAck: "RCPT TO:<" + address + ">",
	}

	state := AwaitGreeting
	for {
		reply, err := c.ReadReply()
		if err != nil {
			verdict, err := p.failure(ctx, log, host, state, err)
			p.teardown(c, stop, err == nil)
			return verdict, err
		}

		next, verdict := Advance(state, reply.Code)
		if next == Terminal {
			log.WithFields(logrus.Fields{
				"smtp_code": reply.Code,
				"smtp_text": reply.Text(),
				"verdict":   verdict,
			}).Debug("rcpt answered")
			p.teardown(c, stop, true)
			return verdict, nil
		}

		if err := c.Send(commands[next]); err != nil {
			verdict, err := p.failure(ctx, log, host, state, err)
			p.teardown(c, stop, err == nil)
			return verdict, err
		}
		state = next
	}
}

// teardown releases the connection. QUIT is only attempted when the
// conversation ended with a verdict; an unusable channel is just closed.
func (p *Prober) teardown(c *smtpconn.Conn, stop func() bool, quit bool) {
	stop()
	if quit {
		c.Quit()
	}
	_ = c.Close()
}

// failure sorts a transport error into a verdict or an unavailability.
func (p *Prober) failure(ctx context.Context, log logrus.FieldLogger, host string, state State, err error) (types.Verdict, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return types.Indeterminate, ctxErr
	}

	log = log.WithFields(logrus.Fields{"state": state, "error": err})
	if reason, ok := unavailableReason(err); ok {
		log.WithField("reason", reason).Warn("smtp channel unavailable")
		return types.Indeterminate, &types.UnavailableError{Host: host, Reason: reason, Err: err}
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		log.Debug("remote closed connection before verdict")
	} else {
		log.Debug("transport error, verdict indeterminate")
	}
	return types.Indeterminate, nil
}

// unavailableReason reports whether err means the channel cannot be used
// in this environment at all, as opposed to a problem with one mailbox.
func unavailableReason(err error) (string, bool) {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused", true
	case errors.Is(err, syscall.ECONNRESET):
		return "connection reset", true
	case errors.Is(err, syscall.EHOSTUNREACH):
		return "host unreachable", true
	case errors.Is(err, syscall.ETIMEDOUT):
		return "connection timed out", true
	case errors.Is(err, os.ErrDeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return "timeout", true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "timeout", true
	}
	return "", false
}
