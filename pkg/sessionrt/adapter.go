package sessionrt

import (
	"encoding/base64"

	"github.com/sablecore/huntbay/pkg/events"
	"github.com/sablecore/huntbay/pkg/sshconn"
)

// eventAdapter implements sshconn.Notifier by translating sshconn's
// generic (kind, ...) callbacks into typed events.Publisher calls scoped to
// one session/asset pair.
type eventAdapter struct {
	pub       *events.Publisher
	sessionID string
	assetID   string
}

// NewEventNotifier builds the sshconn.Notifier a ClientFactory binds into
// each Session's Connector, so SSH status/command/terminal callbacks land
// on the Event Bus scoped to the right session and asset room.
func NewEventNotifier(pub *events.Publisher, sessionID, assetID string) sshconn.Notifier {
	return &eventAdapter{pub: pub, sessionID: sessionID, assetID: assetID}
}

func (a *eventAdapter) SSHStatus(kind, message string) {
	typ, ok := sshStatusTypes[kind]
	if !ok {
		return
	}
	a.pub.PublishSSHStatus(typ, events.SSHStatusPayload{
		SessionID: a.sessionID,
		AssetID:   a.assetID,
		Message:   message,
	})
}

var sshStatusTypes = map[string]events.Type{
	"connecting":   events.TypeSSHConnecting,
	"connected":    events.TypeSSHConnected,
	"disconnected": events.TypeSSHDisconnected,
	"error":        events.TypeSSHError,
}

func (a *eventAdapter) SSHCommand(kind, commandID, chunk string, exitCode *int, durationMs int64) {
	typ, ok := sshCommandTypes[kind]
	if !ok {
		return
	}
	a.pub.PublishSSHCommand(typ, events.SSHCommandPayload{
		SessionID:  a.sessionID,
		Command:    commandID,
		Chunk:      chunk,
		ExitCode:   exitCode,
		DurationMs: durationMs,
	})
}

var sshCommandTypes = map[string]events.Type{
	"started":   events.TypeSSHCommandStarted,
	"output":    events.TypeSSHCommandOutput,
	"completed": events.TypeSSHCommandCompleted,
}

func (a *eventAdapter) TerminalData(kind string, data []byte, cols, rows int, reason string) {
	typ, ok := terminalTypes[kind]
	if !ok {
		return
	}
	var encoded string
	if len(data) > 0 {
		encoded = base64.StdEncoding.EncodeToString(data)
	}
	a.pub.PublishTerminal(typ, events.TerminalDataPayload{
		SessionID: a.sessionID,
		Data:      encoded,
		Cols:      cols,
		Rows:      rows,
		Reason:    reason,
	})
}

var terminalTypes = map[string]events.Type{
	"started": events.TypeTerminalStarted,
	"data":    events.TypeTerminalData,
	"resize":  events.TypeTerminalResize,
	"closed":  events.TypeTerminalClosed,
}
