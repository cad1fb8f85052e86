// Package mail sends email through a provider-agnostic Message.
package mail

import (
	"context"
	"io"
)

// Message is a single email. TextBody is sent alone when HTMLBody is empty;
// both together become multipart/alternative.
type Message struct {
	// From overrides the configured default sender.
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

func (m Message) recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	out = append(out, m.To...)
	out = append(out, m.Cc...)
	return append(out, m.Bcc...)
}

type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
