package delivery

import "strings"

// Result is the outcome of one send attempt to one recipient.
type Result string

const (
	ResultAccepted Result = "ACCEPTED"
	ResultRejected Result = "REJECTED"
)

// Event is one inbound message addressed to a list of recipients.
type Event struct {
	Recipients []string
	Payload    []byte
}

// NormalizeRecipients trims recipient ids and drops empty ones, keeping order.
func NormalizeRecipients(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		id := strings.TrimSpace(item)
		if id == "" {
			continue
		}
		out = append(out, id)
	}
	return out
}
