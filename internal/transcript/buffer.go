package transcript

// Buffer accumulates the items of the message an invocation is currently
// producing. It is flushed into the transcript when the invocation ends.
type Buffer struct {
	role   Role
	active bool
	items  []ContentItem
}

// Start clears the buffer and begins collecting output for role.
func (b *Buffer) Start(role Role) {
	b.role = role
	b.active = true
	b.items = nil
}

// Active reports whether an invocation is currently streaming into the buffer.
func (b *Buffer) Active() bool {
	return b.active
}

// Role returns the role of the invocation being buffered.
func (b *Buffer) Role() Role {
	return b.role
}

// Items returns a copy of the buffered items.
func (b *Buffer) Items() []ContentItem {
	return append([]ContentItem(nil), b.items...)
}

// Len returns the number of buffered items.
func (b *Buffer) Len() int {
	return len(b.items)
}

// Flush returns the buffered items and resets the buffer.
func (b *Buffer) Flush() (Role, []ContentItem) {
	role, items := b.role, b.items
	b.items = nil
	b.active = false
	return role, items
}

// AppendText merges text into the trailing Text item, joining with a newline,
// or starts a new Text item when the last item is something else.
func (b *Buffer) AppendText(text string) {
	if n := len(b.items); n > 0 && b.items[n-1].Kind == ItemText {
		last := &b.items[n-1]
		if last.Text != "" {
			last.Text += "\n"
		}
		last.Text += text
		return
	}
	b.items = append(b.items, Text(text))
}

// Add appends item unchanged.
func (b *Buffer) Add(item ContentItem) {
	b.items = append(b.items, item)
}

// ResolveTool records the result summary on the first unresolved tool call
// with the given id. It reports whether a call matched.
func (b *Buffer) ResolveTool(id, summary string) bool {
	for i := range b.items {
		item := &b.items[i]
		if item.Kind != ItemToolCall || item.Tool.ID != id || item.Tool.Resolved {
			continue
		}
		item.Tool.Summary = summary
		item.Tool.Resolved = true
		return true
	}
	return false
}

// UpdateCommand applies a command status report. The protocol correlates
// commands only by their text, so the latest item with the same text is
// updated in place. A new run of a command whose previous run already
// completed is appended instead.
func (b *Buffer) UpdateCommand(cmd Command) {
	for i := len(b.items) - 1; i >= 0; i-- {
		item := &b.items[i]
		if item.Kind != ItemCommand || item.Command.Command != cmd.Command {
			continue
		}
		if cmd.State == CommandInProgress && item.Command.State == CommandCompleted {
			break
		}
		item.Command = cmd
		return
	}
	b.items = append(b.items, ContentItem{Kind: ItemCommand, Command: cmd})
}
