package domain

// ConversationDiff is the incremental update between two snapshots of the same turn.
// It is serialized to JSON for streaming clients, which append Appended to their
// local copy.
type ConversationDiff struct {
	// From is the number of messages the client is expected to hold already.
	From int `json:"from"`

	// Appended contains the new messages, in order.
	Appended []Message `json:"appended"`
}

// Diff calculates the messages added between oldConv and newConv.
// If oldConv is nil, the whole of newConv is returned (initial load).
// Conversations are append-only within a turn, so a shorter or equal newConv yields nil.
func Diff(oldConv, newConv *Conversation) *ConversationDiff {
	if newConv == nil {
		return nil
	}

	from := 0
	if oldConv != nil {
		from = oldConv.Len()
	}
	if newConv.Len() <= from {
		return nil
	}

	msgs := newConv.Messages()
	return &ConversationDiff{
		From:     from,
		Appended: msgs[from:],
	}
}

// IsEmpty checks if the diff carries any messages.
func (d *ConversationDiff) IsEmpty() bool {
	return d == nil || len(d.Appended) == 0
}
