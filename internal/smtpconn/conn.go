// Package smtpconn wraps a single SMTP client connection: it writes
// commands, reads (possibly multi-line) replies and tears the connection
// down with a best-effort QUIT. A Conn is never reused across probes.
package smtpconn

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultQuitTimeout bounds the best-effort QUIT on teardown.
const DefaultQuitTimeout = 2 * time.Second

// Reply is one complete SMTP reply.
type Reply struct {
	// Code is taken from the first three characters of the final line.
	// It is 0 when those characters are missing or not numeric.
	Code  int
	Lines []string
}

// Text joins the reply lines for diagnostics.
func (r Reply) Text() string {
	return strings.Join(r.Lines, " | ")
}

// Conn is an SMTP client connection.
type Conn struct {
	netConn     net.Conn
	reader      *bufio.Reader
	writer      *bufio.Writer
	QuitTimeout time.Duration
}

// New wraps an established transport.
func New(netConn net.Conn) *Conn {
	return &Conn{
		netConn:     netConn,
		reader:      bufio.NewReader(netConn),
		writer:      bufio.NewWriter(netConn),
		QuitTimeout: DefaultQuitTimeout,
	}
}

// SetDeadline applies one deadline to every following read and write.
func (c *Conn) SetDeadline(t time.Time) error {
	return c.netConn.SetDeadline(t)
}

// Send writes one command line terminated by CRLF and flushes it.
func (c *Conn) Send(cmd string) error {
	if _, err := c.writer.WriteString(cmd + "\r\n"); err != nil {
		return err
	}
	return c.writer.Flush()
}

// ReadReply reads lines until the final line of a reply, that is a line
// whose fourth character is not '-'.
func (c *Conn) ReadReply() (Reply, error) {
	var lines []string
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			// A partial line without newline is not a reply.
			return Reply{Lines: lines}, err
		}
		line = strings.TrimRight(line, "\r\n")
		lines = append(lines, line)
		if len(line) < 4 || line[3] != '-' {
			break
		}
	}
	return Reply{Code: ParseCode(lines[len(lines)-1]), Lines: lines}, nil
}

// Quit sends QUIT (best-effort, ignores errors). The reply is not read.
func (c *Conn) Quit() {
	_ = c.netConn.SetDeadline(time.Now().Add(c.QuitTimeout))
	_ = c.Send("QUIT")
}

// Close releases the transport.
func (c *Conn) Close() error {
	return c.netConn.Close()
}

// ParseCode returns the numeric status code in the first three characters
// of line, or 0 if there is none.
func ParseCode(line string) int {
	if len(line) < 3 {
		return 0
	}
	code, err := strconv.Atoi(line[:3])
	if err != nil || code < 0 {
		return 0
	}
	return code
}
