package relay

import "strings"

// CompletionToken is what the reviewer replies with to end the relay.
const CompletionToken = "ALL_DONE"

// SignaledDone reports whether the reviewer's answer is the completion token
// and nothing else, ignoring case and surrounding whitespace. Text that only
// mentions the token does not count.
func SignaledDone(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), CompletionToken)
}
