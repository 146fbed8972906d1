package session

import (
	"strings"
	"time"
)

// Command is a control command routed to the session core. The zero value
// means plain text.
type Command string

const (
	CommandNone    Command = ""
	CommandEnable  Command = "enable"
	CommandDisable Command = "disable"
	CommandToggle  Command = "toggle"
	CommandStatus  Command = "status"
)

// ParseCommand maps a command name, with or without the leading slash and
// any "@botname" suffix, to a Command. Unknown names report false and must be
// answered by the transport's fallback.
func ParseCommand(name string) (Command, bool) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	switch Command(strings.ToLower(name)) {
	case CommandEnable:
		return CommandEnable, true
	case CommandDisable:
		return CommandDisable, true
	case CommandToggle:
		return CommandToggle, true
	case CommandStatus:
		return CommandStatus, true
	default:
		return CommandNone, false
	}
}

// IsGateCommand reports whether c changes the reply switch.
func (c Command) IsGateCommand() bool {
	return c == CommandEnable || c == CommandDisable || c == CommandToggle
}

// Event is one inbound message.
type Event struct {
	ConversationID string    `json:"conversation_id"`
	PrincipalID    string    `json:"principal_id,omitempty"`
	DisplayName    string    `json:"display_name,omitempty"`
	Username       string    `json:"username,omitempty"`
	Text           string    `json:"text"`
	Command        Command   `json:"command,omitempty"`
	ReceivedAt     time.Time `json:"received_at,omitzero"`
}

// Outcome is how an event was resolved.
type Outcome string

const (
	OutcomeReplied Outcome = "replied"
	OutcomeGated   Outcome = "gated"
	OutcomeToggled Outcome = "toggled"
	OutcomeStatus  Outcome = "status"
	OutcomeFailed  Outcome = "failed"
)

// Result is what the transport delivers. An empty Reply sends nothing.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Reply   string  `json:"reply,omitempty"`

	// Enabled is the switch state after a gate or status command.
	Enabled bool `json:"enabled"`

	// Failure is set when the completion failed.
	Failure *ProviderFailure `json:"-"`

	// LedgerErr is set when the reply was produced but could not be recorded.
	LedgerErr error `json:"-"`

	// RecordID identifies the ledger record of a replied exchange.
	RecordID string `json:"record_id,omitempty"`
}
