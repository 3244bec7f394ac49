package integration

import (
	"context"
	"log/slog"
	"net"
	"testing"

	"github.com/stamforge/modhost/internal/bootstrap"
	"github.com/stamforge/modhost/internal/game"
	"github.com/stamforge/modhost/internal/manifest"
	"github.com/stamforge/modhost/internal/runtime"
	"github.com/stamforge/modhost/internal/session"
	"github.com/stamforge/modhost/internal/wire"
)

// newTestDriver builds a session.Driver around one fake game so the
// handshake tests exercise the real connection driver end to end,
// instead of a hand-coded test-only server.
func newTestDriver(t *testing.T) *session.Driver {
	t.Helper()
	rt := game.NewRuntime("g1", runtime.NewManager(), slog.Default())
	rt.RegisterModInfo(manifest.Info{ID: "mod-a", ModType: manifest.ModTypeLibrary, DownloadURL: "stam://h:9999/mods/mod-a"})
	rt.SetClientMods([]string{"mod-a"})

	return &session.Driver{
		Games: map[string]bootstrap.ServerGame{
			"g1": {ID: "g1", Runtime: rt},
		},
		ServerList: []wire.ServerInfo{{GameID: "g1", Name: "G1", URI: "stam://h:9999"}},
		Log:        slog.Default(),
	}
}

func dialDriver(t *testing.T, driver *session.Driver) net.Conn {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	wireLn := wire.NewListener(ln)
	go func() {
		conn, err := wireLn.Accept()
		if err != nil {
			return
		}
		driver.Serve(context.Background(), conn)
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWelcome(t *testing.T, conn net.Conn) wire.Welcome {
	t.Helper()
	raw, err := wire.ReadFrame(conn)
	if err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	msg, err := wire.DecodePrimalServerMessage(raw)
	if err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	w, ok := msg.(wire.Welcome)
	if !ok {
		t.Fatalf("expected Welcome, got %T", msg)
	}
	return w
}

func TestSessionDriverPrimalLoginReturnsServerList(t *testing.T) {
	driver := newTestDriver(t)
	conn := dialDriver(t, driver)

	welcome := readWelcome(t, conn)
	if welcome.Version != session.ServerVersion {
		t.Fatalf("unexpected welcome version %q", welcome.Version)
	}

	intent := wire.Intent{
		Type:          wire.IntentPrimalLogin,
		ClientVersion: session.ServerVersion,
		Username:      "u",
		PasswordHash:  sha512Hex("p"),
	}
	if err := wire.WriteFrame(conn, wire.EncodeIntent(intent)); err != nil {
		t.Fatalf("write intent: %v", err)
	}

	raw, err := wire.ReadFrame(conn)
	if err != nil {
		t.Fatalf("read server list: %v", err)
	}
	msg, err := wire.DecodePrimalServerMessage(raw)
	if err != nil {
		t.Fatalf("decode server list: %v", err)
	}
	list, ok := msg.(wire.ServerList)
	if !ok || len(list.Servers) != 1 || list.Servers[0].GameID != "g1" || list.Servers[0].URI != "stam://h:9999" {
		t.Fatalf("unexpected server list: %+v", msg)
	}
}

func TestSessionDriverGameLoginReturnsLoginSuccess(t *testing.T) {
	driver := newTestDriver(t)
	conn := dialDriver(t, driver)

	readWelcome(t, conn)

	intent := wire.Intent{
		Type:          wire.IntentGameLogin,
		ClientVersion: session.ServerVersion,
		Username:      "u",
		PasswordHash:  sha512Hex("p"),
		HasGameID:     true,
		GameID:        "g1",
	}
	if err := wire.WriteFrame(conn, wire.EncodeIntent(intent)); err != nil {
		t.Fatalf("write intent: %v", err)
	}

	raw, err := wire.ReadFrame(conn)
	if err != nil {
		t.Fatalf("read login success: %v", err)
	}
	msg, err := wire.DecodeGameMessage(raw)
	if err != nil {
		t.Fatalf("decode login success: %v", err)
	}
	login, ok := msg.(wire.LoginSuccess)
	if !ok || len(login.Mods) != 1 || login.Mods[0].ModID != "mod-a" || login.Mods[0].DownloadURL != "stam://h:9999/mods/mod-a" {
		t.Fatalf("unexpected login success: %+v", msg)
	}
}

func TestSessionDriverGameLoginUnknownGameSendsGameError(t *testing.T) {
	driver := newTestDriver(t)
	conn := dialDriver(t, driver)

	readWelcome(t, conn)

	intent := wire.Intent{
		Type:          wire.IntentGameLogin,
		ClientVersion: session.ServerVersion,
		Username:      "u",
		PasswordHash:  sha512Hex("p"),
		HasGameID:     true,
		GameID:        "no-such-game",
	}
	if err := wire.WriteFrame(conn, wire.EncodeIntent(intent)); err != nil {
		t.Fatalf("write intent: %v", err)
	}

	raw, err := wire.ReadFrame(conn)
	if err != nil {
		t.Fatalf("read game error: %v", err)
	}
	msg, err := wire.DecodeGameMessage(raw)
	if err != nil {
		t.Fatalf("decode game error: %v", err)
	}
	if _, ok := msg.(wire.GameError); !ok {
		t.Fatalf("expected GameError, got %T", msg)
	}
}

func TestSessionDriverServerLoginIsNotSupported(t *testing.T) {
	driver := newTestDriver(t)
	conn := dialDriver(t, driver)

	readWelcome(t, conn)

	intent := wire.Intent{
		Type:          wire.IntentServerLogin,
		ClientVersion: session.ServerVersion,
		Username:      "u",
		PasswordHash:  sha512Hex("p"),
	}
	if err := wire.WriteFrame(conn, wire.EncodeIntent(intent)); err != nil {
		t.Fatalf("write intent: %v", err)
	}

	raw, err := wire.ReadFrame(conn)
	if err != nil {
		t.Fatalf("read primal error: %v", err)
	}
	msg, err := wire.DecodePrimalServerMessage(raw)
	if err != nil {
		t.Fatalf("decode primal error: %v", err)
	}
	if _, ok := msg.(wire.PrimalError); !ok {
		t.Fatalf("expected PrimalError, got %T", msg)
	}
}
