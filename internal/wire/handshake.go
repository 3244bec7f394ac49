package wire

import (
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/stamforge/modhost/internal/manifest"
	"github.com/stamforge/modhost/internal/timeouts"
)

// Conn pairs a net.Conn with the connection id used only for
// logging/tracing (spec.md never puts it on the wire).
type Conn struct {
	net.Conn
	ID string
}

// Listener wraps a net.Listener, stamping every accepted connection
// with a uuid trace id and the handshake read/write deadline.
type Listener struct {
	net.Listener
}

// NewListener wraps an already-bound net.Listener.
func NewListener(l net.Listener) *Listener {
	return &Listener{Listener: l}
}

// Accept blocks for the next connection and applies the handshake
// deadline before the caller reads the first frame.
func (l *Listener) Accept() (*Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	_ = c.SetDeadline(time.Now().Add(timeouts.WireHandshake))
	return &Conn{Conn: c, ID: uuid.NewString()}, nil
}

// ExtendIdle resets c's deadline to the idle timeout, called once the
// Primal handshake completes and the connection settles into steady
// state (either closed shortly after, or promoted to Game mode).
func (c *Conn) ExtendIdle() {
	_ = c.SetDeadline(time.Now().Add(timeouts.WireIdle))
}

// VersionsMatch reports whether two "MAJOR.MINOR.PATCH[-pre]" version
// strings agree on major.minor, the handshake's compatibility rule
// (spec.md §4.1/§6).
func VersionsMatch(a, b string) (bool, error) {
	return manifest.CompatibleMajorMinor(a, b)
}
