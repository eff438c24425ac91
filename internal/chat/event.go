// Package chat is the boundary between the bot's services and the chat platform.
// Services speak in Events, Replies and Messages; internal/platform/discord translates
// them to and from the Discord API.
package chat

// EventKind identifies what produced an inbound event.
type EventKind int

const (
	KindCommand EventKind = iota + 1
	KindSelect
	KindButton
	KindModal
)

func (k EventKind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindSelect:
		return "select"
	case KindButton:
		return "button"
	case KindModal:
		return "modal"
	}
	return "unknown"
}

// Event is one inbound UI interaction.
type Event struct {
	// ID is unique per delivery attempt of the same interaction and is used for deduplication.
	ID   string
	Kind EventKind
	// Name is the command name for commands, otherwise the component custom id.
	Name string

	Values  []string          // select menu values
	Fields  map[string]string // modal text inputs by custom id
	Options map[string]string // command options; numbers are formatted as decimal strings

	UserID   string
	Username string
	UserTag  string
	IsAdmin  bool

	GuildID   string
	ChannelID string

	// SourceEmbeds are the embeds of the message a component is attached to.
	SourceEmbeds []Embed
}

// Value returns the first selected value.
func (e Event) Value() string {
	if len(e.Values) == 0 {
		return ""
	}
	return e.Values[0]
}

// Option returns a command option by name.
func (e Event) Option(name string) string { return e.Options[name] }

// Field returns a modal input by custom id.
func (e Event) Field(id string) string { return e.Fields[id] }
