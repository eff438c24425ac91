package chat

import "time"

// Colors used across bot embeds.
const (
	ColorBlurple = 0x5865F2
	ColorGreen   = 0x57F287
	ColorYellow  = 0xFEE75C
	ColorRed     = 0xED4245
	ColorGold    = 0xFFD700
)

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
	Footer      string
	Timestamp   time.Time
}

// WithField returns a copy of the embed with one more field.
func (e Embed) WithField(f EmbedField) Embed {
	fields := make([]EmbedField, 0, len(e.Fields)+1)
	fields = append(fields, e.Fields...)
	e.Fields = append(fields, f)
	return e
}

type ComponentKind int

const (
	ComponentSelect ComponentKind = iota + 1
	ComponentButton
)

type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota + 1
	ButtonSecondary
	ButtonSuccess
	ButtonDanger
)

type SelectOption struct {
	Label       string
	Description string
	Value       string
}

// Component is a select menu or a button. Each component is rendered in its own row.
type Component struct {
	Kind     ComponentKind
	CustomID string

	Placeholder string
	Options     []SelectOption

	Label    string
	Emoji    string
	Style    ButtonStyle
	Disabled bool
}

type Message struct {
	Content    string
	Embeds     []Embed
	Components []Component
}

type TextInput struct {
	CustomID    string
	Label       string
	Placeholder string
	Required    bool
}

type Modal struct {
	CustomID string
	Title    string
	Inputs   []TextInput
}

// ReplyKind selects how a reply is delivered.
type ReplyKind int

const (
	// ReplyMessage answers the interaction with a new message (or fills the deferred one).
	ReplyMessage ReplyKind = iota
	// ReplyUpdate edits the message the component is attached to.
	ReplyUpdate
	// ReplyModal opens a form. Not valid for deferred events.
	ReplyModal
)

type FollowUp struct {
	Message   Message
	Ephemeral bool
}

// Reply is the response to one event.
type Reply struct {
	Kind      ReplyKind
	Ephemeral bool
	Message   Message
	Modal     *Modal
	FollowUps []FollowUp
}

// Text builds a plain message reply.
func Text(content string, ephemeral bool) Reply {
	return Reply{Kind: ReplyMessage, Ephemeral: ephemeral, Message: Message{Content: content}}
}

// ShowModal builds a modal reply.
func ShowModal(m Modal) Reply {
	return Reply{Kind: ReplyModal, Modal: &m}
}
