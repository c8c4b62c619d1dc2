package engine

import "fmt"

// Bridge error kinds. Callers can switch on Kind to distinguish a crashed
// engine from garbage output or a hung process.
const (
	KindExit    = "exit"
	KindBadJSON = "bad_json"
	KindTimeout = "timeout"
	KindReply   = "reply_error"
)

// BridgeError describes a failed engine subprocess invocation.
type BridgeError struct {
	Kind   string
	Script string
	Detail string
	Output string
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("engine %s: %s: %s", e.Script, e.Kind, e.Detail)
}
