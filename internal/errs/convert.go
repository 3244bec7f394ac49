package errs

// WireMessage is the subset of wire.Error/wire.Disconnect this package can
// produce without importing the wire package (which itself depends on
// errs for framing failures).
type WireMessage struct {
	Terminal bool
	Message  string
}

// ToWireMessage converts a domain error into the payload for a wire-level
// Error (terminal) or Disconnect (graceful) message.
func (e *Error) ToWireMessage() WireMessage {
	switch e.Code {
	case CodeVersionMismatch, CodeAuthFailure, CodeProtocolError:
		return WireMessage{Terminal: true, Message: e.Message}
	default:
		return WireMessage{Terminal: false, Message: e.Message}
	}
}

// ScriptResult is the structured result shape returned to mod scripts for
// operations that never throw (network.download, file.read_json).
type ScriptResult struct {
	Ok      bool
	Message string
}

// ToScriptResult converts a domain error into a script-facing result.
func (e *Error) ToScriptResult() ScriptResult {
	return ScriptResult{Ok: false, Message: e.Message}
}
