// Package timeouts defines shared duration constants used across modhost.
// Centralizing these values prevents drift between the server and client
// and makes the durations discoverable.
package timeouts

import "time"

// WireHandshake caps the time a Primal-stream handshake (Welcome -> Intent)
// is allowed to take before the connection is dropped.
const WireHandshake = 5 * time.Second

// WireIdle limits how long a Game-stream connection may sit with no frame
// activity before the server considers it dead.
const WireIdle = 60 * time.Second

// GraphicsShutdown bounds how long Graphic.Shutdown waits for the engine
// to acknowledge before returning an errs.CodeTimeout error.
const GraphicsShutdown = 5 * time.Second

// DownloadAttempt is a 30-second download duration. The network
// capability does not reference it: its backoff policy sets its own
// 30-second limit on the total retry time, and a single attempt is not
// capped.
const DownloadAttempt = 30 * time.Second

// TimerMinDelay is the HTML5-rule floor every setTimeout/setInterval delay
// is clamped to.
const TimerMinDelay = 4 * time.Millisecond
