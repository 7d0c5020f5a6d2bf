package flows

// MarkupKind asks the transport to attach an inline keyboard to the reply.
type MarkupKind int

const (
	// MarkupNone means plain text, optionally with the main menu keyboard.
	MarkupNone MarkupKind = iota
	// MarkupDeleteConfirm attaches yes/no deletion buttons for ProductID.
	MarkupDeleteConfirm
	// MarkupEditFields attaches the field choice buttons for ProductID.
	MarkupEditFields
)

// Reply is the transport-agnostic outcome of a flow event.
type Reply struct {
	Text      string
	WithMenu  bool
	Markup    MarkupKind
	ProductID int64
	// Committed is set when a ledger mutation was performed.
	Committed bool
	Flow      Flow
	// Ignored marks stale events (such as a re-sent confirmation click on
	// an idle session) that warrant no reply at all.
	Ignored bool
}
