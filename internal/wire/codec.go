package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/stamforge/modhost/internal/errs"
)

// tag identifies a message's concrete type within a payload, the first
// byte of every encoded frame.
type tag uint8

const (
	tagWelcome tag = iota
	tagPrimalError
	tagPrimalDisconnect
	tagServerList
	tagIntent
	tagLoginSuccess
	tagGameError
	tagGameDisconnect
)

// --- primitive writers/readers, matching the teacher's preference for
// small explicit helpers over a reflective codec ---

type writer struct{ buf bytes.Buffer }

func (w *writer) u8(v uint8)  { w.buf.WriteByte(v) }
func (w *writer) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}
func (w *writer) str(s string) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	w.buf.Write(lenBuf[:])
	w.buf.WriteString(s)
}
func (w *writer) u32(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	w.buf.Write(buf[:])
}

type reader struct {
	r   *bytes.Reader
	err error
}

func newReader(payload []byte) *reader { return &reader{r: bytes.NewReader(payload)} }

func (r *reader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	b, err := r.r.ReadByte()
	if err != nil {
		r.err = err
	}
	return b
}

func (r *reader) bool() bool { return r.u8() != 0 }

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	var buf [4]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		r.err = err
		return 0
	}
	return binary.BigEndian.Uint32(buf[:])
}

func (r *reader) str() string {
	n := r.u32()
	if r.err != nil || n == 0 {
		return ""
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		r.err = err
		return ""
	}
	return string(buf)
}

func protocolErr(format string, args ...any) error {
	return errs.New(errs.CodeProtocolError, fmt.Sprintf(format, args...))
}

// --- Primal: Server -> Client ---

func EncodeWelcome(m Welcome) []byte {
	w := &writer{}
	w.u8(uint8(tagWelcome))
	w.str(m.Version)
	return w.buf.Bytes()
}

func EncodePrimalError(m PrimalError) []byte {
	w := &writer{}
	w.u8(uint8(tagPrimalError))
	w.str(m.Message)
	return w.buf.Bytes()
}

func EncodePrimalDisconnect(m PrimalDisconnect) []byte {
	w := &writer{}
	w.u8(uint8(tagPrimalDisconnect))
	w.str(m.Message)
	return w.buf.Bytes()
}

func EncodeServerList(m ServerList) []byte {
	w := &writer{}
	w.u8(uint8(tagServerList))
	w.u32(uint32(len(m.Servers)))
	for _, s := range m.Servers {
		w.str(s.GameID)
		w.str(s.Name)
		w.str(s.URI)
	}
	return w.buf.Bytes()
}

// DecodePrimalServerMessage decodes any of the four Server -> Client
// Primal messages, returning the concrete value as `any`.
func DecodePrimalServerMessage(payload []byte) (any, error) {
	if len(payload) == 0 {
		return nil, protocolErr("empty primal payload")
	}
	r := newReader(payload)
	t := tag(r.u8())
	switch t {
	case tagWelcome:
		m := Welcome{Version: r.str()}
		return m, r.finish()
	case tagPrimalError:
		m := PrimalError{Message: r.str()}
		return m, r.finish()
	case tagPrimalDisconnect:
		m := PrimalDisconnect{Message: r.str()}
		return m, r.finish()
	case tagServerList:
		n := r.u32()
		servers := make([]ServerInfo, 0, n)
		for i := uint32(0); i < n && r.err == nil; i++ {
			servers = append(servers, ServerInfo{GameID: r.str(), Name: r.str(), URI: r.str()})
		}
		return ServerList{Servers: servers}, r.finish()
	default:
		return nil, protocolErr("unknown primal server tag %d", t)
	}
}

func (r *reader) finish() error {
	if r.err != nil && r.err != io.EOF {
		return protocolErr("truncated message: %v", r.err)
	}
	return nil
}

// --- Primal: Client -> Server ---

func EncodeIntent(m Intent) []byte {
	w := &writer{}
	w.u8(uint8(tagIntent))
	w.u8(uint8(m.Type))
	w.str(m.ClientVersion)
	w.str(m.Username)
	w.str(m.PasswordHash)
	w.bool(m.HasGameID)
	w.str(m.GameID)
	return w.buf.Bytes()
}

func DecodeIntent(payload []byte) (Intent, error) {
	r := newReader(payload)
	if t := tag(r.u8()); t != tagIntent {
		return Intent{}, protocolErr("expected intent tag, got %d", t)
	}
	m := Intent{
		Type:          IntentType(r.u8()),
		ClientVersion: r.str(),
		Username:      r.str(),
		PasswordHash:  r.str(),
	}
	m.HasGameID = r.bool()
	m.GameID = r.str()
	return m, r.finish()
}

// --- Game: Server -> Client ---

func EncodeLoginSuccess(m LoginSuccess) []byte {
	w := &writer{}
	w.u8(uint8(tagLoginSuccess))
	w.u32(uint32(len(m.Mods)))
	for _, mod := range m.Mods {
		w.str(mod.ModID)
		w.str(mod.ModType)
		w.str(mod.DownloadURL)
	}
	return w.buf.Bytes()
}

func EncodeGameError(m GameError) []byte {
	w := &writer{}
	w.u8(uint8(tagGameError))
	w.str(m.Message)
	return w.buf.Bytes()
}

func EncodeGameDisconnect(m GameDisconnect) []byte {
	w := &writer{}
	w.u8(uint8(tagGameDisconnect))
	w.str(m.Message)
	return w.buf.Bytes()
}

// DecodeGameMessage decodes any of the Server -> Client Game messages.
func DecodeGameMessage(payload []byte) (any, error) {
	if len(payload) == 0 {
		return nil, protocolErr("empty game payload")
	}
	r := newReader(payload)
	t := tag(r.u8())
	switch t {
	case tagLoginSuccess:
		n := r.u32()
		mods := make([]ModInfo, 0, n)
		for i := uint32(0); i < n && r.err == nil; i++ {
			mods = append(mods, ModInfo{ModID: r.str(), ModType: r.str(), DownloadURL: r.str()})
		}
		return LoginSuccess{Mods: mods}, r.finish()
	case tagGameError:
		return GameError{Message: r.str()}, r.finish()
	case tagGameDisconnect:
		return GameDisconnect{Message: r.str()}, r.finish()
	default:
		return nil, protocolErr("unknown game server tag %d", t)
	}
}
