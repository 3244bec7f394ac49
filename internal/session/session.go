// Package session drives the per-connection Primal/Game handshake
// (spec.md §4.1) on the server side, the reciprocal of the handshake
// cmd/modhost-client's main.go runs against a real server.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stamforge/modhost/internal/bootstrap"
	"github.com/stamforge/modhost/internal/wire"
)

// ServerVersion is the version this driver reports in its Welcome and
// checks an Intent's ClientVersion against.
const ServerVersion = "0.1.0-alpha"

// Authenticator checks a username/password-hash pair, optionally scoped
// to a game id. spec.md treats authentication backends as out of scope,
// "external collaborators, specified only at their interfaces"; Driver
// depends only on this function shape, never a concrete credential
// store. A nil Authenticator accepts every login, matching a
// single-player or trusted-LAN deployment.
type Authenticator func(username, passwordHash, gameID string, hasGameID bool) bool

// Driver serves the handshake for every connection a listener accepts.
type Driver struct {
	// Games is looked up by GameID for an IntentGameLogin.
	Games map[string]bootstrap.ServerGame
	// ServerList answers an IntentPrimalLogin.
	ServerList []wire.ServerInfo
	// Authenticate gates both login intents; nil means "allow all".
	Authenticate Authenticator
	Log          *slog.Logger
}

// Serve runs one connection's handshake to completion and, for a
// successful game login, blocks in Game mode until the peer
// disconnects. It always closes conn before returning, so callers only
// need `go driver.Serve(ctx, conn)`.
func (d *Driver) Serve(ctx context.Context, conn *wire.Conn) {
	defer conn.Close()
	log := d.Log.With("conn_id", conn.ID)

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stopWatch:
		}
	}()

	if err := wire.WriteFrame(conn, wire.EncodeWelcome(wire.Welcome{Version: ServerVersion})); err != nil {
		log.Warn("write welcome failed", "error", err)
		return
	}

	payload, err := wire.ReadFrame(conn)
	if err != nil {
		log.Warn("read intent failed", "error", err)
		return
	}
	intent, err := wire.DecodeIntent(payload)
	if err != nil {
		log.Warn("decode intent failed", "error", err)
		return
	}

	if ok, err := wire.VersionsMatch(intent.ClientVersion, ServerVersion); err != nil || !ok {
		d.sendPrimalError(conn, log, "client version %q is incompatible with server version %q", intent.ClientVersion, ServerVersion)
		return
	}

	switch intent.Type {
	case wire.IntentPrimalLogin:
		d.servePrimalLogin(conn, log, intent)
	case wire.IntentGameLogin:
		d.serveGameLogin(conn, log, intent)
	case wire.IntentServerLogin:
		// Accepted on the wire, per spec.md, but no handler exists yet:
		// "preserve this behavior until a design for server-to-server
		// peering is specified."
		d.sendPrimalError(conn, log, "server login is not supported")
	default:
		d.sendPrimalError(conn, log, "unknown intent type %d", intent.Type)
	}
}

func (d *Driver) servePrimalLogin(conn *wire.Conn, log *slog.Logger, intent wire.Intent) {
	if !d.authenticate(intent) {
		d.sendPrimalError(conn, log, "invalid credentials")
		return
	}
	if err := wire.WriteFrame(conn, wire.EncodeServerList(wire.ServerList{Servers: d.ServerList})); err != nil {
		log.Warn("write server list failed", "error", err)
		return
	}
	conn.ExtendIdle()
}

func (d *Driver) serveGameLogin(conn *wire.Conn, log *slog.Logger, intent wire.Intent) {
	if !d.authenticate(intent) {
		d.sendGameError(conn, log, "invalid credentials")
		return
	}
	if !intent.HasGameID {
		d.sendGameError(conn, log, "game login requires a game id")
		return
	}
	g, ok := d.Games[intent.GameID]
	if !ok {
		d.sendGameError(conn, log, "unknown game %q", intent.GameID)
		return
	}

	clientMods := g.Runtime.ClientMods()
	mods := make([]wire.ModInfo, 0, len(clientMods))
	for _, modID := range clientMods {
		info, ok := g.Runtime.ModInfo(modID)
		if !ok {
			continue
		}
		mods = append(mods, wire.ModInfo{
			ModID:       info.ID,
			ModType:     string(info.ModType),
			DownloadURL: info.DownloadURL,
		})
	}

	if err := wire.WriteFrame(conn, wire.EncodeLoginSuccess(wire.LoginSuccess{Mods: mods})); err != nil {
		log.Warn("write login success failed", "error", err)
		return
	}
	conn.ExtendIdle()
	log.Info("game login succeeded", "game_id", intent.GameID, "username", intent.Username, "mod_count", len(mods))

	// The Game stream has no Client -> Server message beyond the
	// initial Intent (wire.DecodeGameMessage only decodes Server ->
	// Client variants), so steady state is just waiting for the peer
	// to close or the idle deadline to trip.
	for {
		if _, err := wire.ReadFrame(conn); err != nil {
			return
		}
	}
}

func (d *Driver) authenticate(intent wire.Intent) bool {
	if d.Authenticate == nil {
		return true
	}
	return d.Authenticate(intent.Username, intent.PasswordHash, intent.GameID, intent.HasGameID)
}

func (d *Driver) sendPrimalError(conn *wire.Conn, log *slog.Logger, format string, args ...any) {
	if err := wire.WriteFrame(conn, wire.EncodePrimalError(wire.PrimalError{Message: fmt.Sprintf(format, args...)})); err != nil {
		log.Warn("write primal error failed", "error", err)
	}
}

func (d *Driver) sendGameError(conn *wire.Conn, log *slog.Logger, format string, args ...any) {
	if err := wire.WriteFrame(conn, wire.EncodeGameError(wire.GameError{Message: fmt.Sprintf(format, args...)})); err != nil {
		log.Warn("write game error failed", "error", err)
	}
}
