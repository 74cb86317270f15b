package transcript

import "strings"

// Message is a committed block of agent output.
type Message struct {
	Role  Role
	Turn  int
	Items []ContentItem

	// Err is set when the invocation that produced the message failed
	// part-way. It is shown to the user but never forwarded.
	Err string
}

// PlainText renders the message with Format.
func (m Message) PlainText() string {
	return Format(m.Items)
}

// AnswerText concatenates the message's Text items, which is what the agent
// actually said as opposed to what it did along the way.
func (m Message) AnswerText() string {
	var parts []string
	for _, item := range m.Items {
		if item.Kind == ItemText {
			parts = append(parts, item.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Transcript is the ordered history of a session. It is owned by a single
// goroutine and is not safe for concurrent use.
type Transcript struct {
	Task     string
	Context  string
	Turn     int
	messages []Message
}

// New creates an empty transcript for the given task and context.
func New(task, context string) *Transcript {
	return &Transcript{Task: task, Context: context}
}

// Append commits items as a new message stamped with the current turn and
// returns a copy of it.
func (t *Transcript) Append(role Role, items []ContentItem) Message {
	msg := Message{
		Role:  role,
		Turn:  t.Turn,
		Items: append([]ContentItem(nil), items...),
	}
	t.messages = append(t.messages, msg)
	return msg
}

// AppendFailed commits the partial output of a failed invocation. Nothing is
// committed when there is no output, and ok reports whether a message was
// added.
func (t *Transcript) AppendFailed(role Role, items []ContentItem, err error) (Message, bool) {
	if len(items) == 0 {
		return Message{}, false
	}
	msg := t.Append(role, items)
	if err != nil {
		msg.Err = err.Error()
		t.messages[len(t.messages)-1].Err = msg.Err
	}
	return msg, true
}

// Messages returns a copy of the committed messages.
func (t *Transcript) Messages() []Message {
	return append([]Message(nil), t.messages...)
}

// Len returns the number of committed messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Last returns the most recent message.
func (t *Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// EditLast replaces the items of the most recent message with a single Text
// item holding text. It reports false when the transcript is empty.
func (t *Transcript) EditLast(text string) (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	last := &t.messages[len(t.messages)-1]
	last.Items = []ContentItem{Text(text)}
	last.Err = ""
	return *last, true
}
