package wire

// IntentType distinguishes the three things a client can ask for right
// after the handshake (spec.md §4.1).
type IntentType uint8

const (
	IntentPrimalLogin IntentType = iota
	IntentGameLogin
	IntentServerLogin
)

// Intent is the sole Client → Server message on the Primal stream.
type Intent struct {
	Type          IntentType
	ClientVersion string
	Username      string
	PasswordHash  string // hex sha-512
	GameID        string // empty when not set
	HasGameID     bool
}

// Welcome is the first thing the server sends after accepting a
// connection, before reading any Intent.
type Welcome struct {
	Version string
}

// PrimalError is a terminal Server → Client message: the connection is
// closed immediately after it's sent.
type PrimalError struct {
	Message string
}

// PrimalDisconnect is a graceful Server → Client close, distinct from
// PrimalError only in that it doesn't imply failure.
type PrimalDisconnect struct {
	Message string
}

// ServerInfo describes one joinable game for the PrimalLogin server list.
type ServerInfo struct {
	GameID string
	Name   string
	URI    string
}

// ServerList answers a successful PrimalLogin intent.
type ServerList struct {
	Servers []ServerInfo
}

// ModInfo is the wire-level view of a mod sent to a client on login,
// distinct from manifest.Info which carries the server's full bookkeeping.
type ModInfo struct {
	ModID       string
	ModType     string
	DownloadURL string
}

// LoginSuccess answers a successful GameLogin intent; the stream stays
// open afterward in Game mode.
type LoginSuccess struct {
	Mods []ModInfo
}

// GameError is the Game-stream analog of PrimalError.
type GameError struct {
	Message string
}

// GameDisconnect is the Game-stream analog of PrimalDisconnect.
type GameDisconnect struct {
	Message string
}
