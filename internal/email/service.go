package email

import (
	"context"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Service interface {
	// Send delivers msg and returns a provider message id.
	Send(ctx context.Context, msg Message) (string, error)
}
