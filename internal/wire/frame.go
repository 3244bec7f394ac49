// Package wire implements the length-prefixed, tagged-union framing
// protocol described in spec.md §4.1: a Primal stream used for
// handshake/auth/server-list, followed by a Game stream for everything
// after login.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/stamforge/modhost/internal/errs"
)

// MaxPayload is the largest payload a single frame may carry.
const MaxPayload = 2 * 1024 * 1024

// ReadFrame reads one length-prefixed frame from r. A zero-length frame
// means the peer closed the stream cleanly; it returns io.EOF rather
// than an empty payload so callers can't mistake it for a real message.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return nil, io.EOF
	}
	if n > MaxPayload {
		return nil, errs.WithMetadata(errs.CodeProtocolError, "frame exceeds maximum payload size",
			map[string]string{"size": fmt.Sprint(n), "max": fmt.Sprint(MaxPayload)})
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// WriteFrame writes payload as one length-prefixed frame. A zero-length
// payload is used to signal a clean close (see CloseFrame).
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxPayload {
		return errs.WithMetadata(errs.CodeProtocolError, "refusing to write oversized frame",
			map[string]string{"size": fmt.Sprint(len(payload)), "max": fmt.Sprint(MaxPayload)})
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// CloseFrame writes the zero-length frame that signals a clean close.
func CloseFrame(w io.Writer) error {
	return WriteFrame(w, nil)
}
