package mail

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"
	"time"
)

// ConsoleMailer writes messages to the process log instead of sending
// them. Default when no SendGrid key is configured; also the test double.
type ConsoleMailer struct {
	From mail.Address
	// Quiet suppresses log output; sent messages are still recorded.
	Quiet bool

	mu   sync.Mutex
	sent []Message
}

func NewConsoleMailer(fromName, fromEmail string) *ConsoleMailer {
	return &ConsoleMailer{From: mail.Address{Name: fromName, Address: fromEmail}}
}

func (m *ConsoleMailer) Send(_ context.Context, msg *Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, *msg)
	m.mu.Unlock()

	if m.Quiet {
		return nil
	}

	body := new(strings.Builder)
	fmt.Fprintf(body, "From: %s\r\n", m.From.String())
	fmt.Fprintf(body, "To: %s\r\n", msg.To.String())
	fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(body, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(body, "\r\n%s\r\n", msg.TextBody)
	log.Println(body.String())
	return nil
}

// Sent returns a copy of every message delivered so far.
func (m *ConsoleMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
