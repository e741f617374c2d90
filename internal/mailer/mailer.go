// Package mailer отправляет письма через Resend HTTP API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const defaultEndpoint = "https://api.resend.com/emails"

// ErrNotConfigured возвращается, если ключ API не задан.
var ErrNotConfigured = errors.New("RESEND_API_KEY not configured")

// Message - полностью подготовленное письмо.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer - внешний сервис отправки писем. Повторных попыток не делает.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ResendMailer реализует Mailer поверх Resend.
type ResendMailer struct {
	apiKey    string
	fromEmail string
	endpoint  string
	client    *http.Client
}

func NewResendMailer(apiKey, fromEmail string) *ResendMailer {
	return &ResendMailer{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		endpoint:  defaultEndpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// WithEndpoint подменяет адрес API.
func (m *ResendMailer) WithEndpoint(endpoint string) *ResendMailer {
	m.endpoint = endpoint
	return m
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	if m.apiKey == "" {
		return ErrNotConfigured
	}

	payload := map[string]interface{}{
		"from":    fmt.Sprintf("Proposals <%s>", m.fromEmail),
		"to":      []string{msg.To},
		"subject": msg.Subject,
		"html":    msg.HTML,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", m.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send email: status %d", resp.StatusCode)
	}
	return nil
}

// QuotePublished формирует письмо клиенту со ссылкой на предложение.
func QuotePublished(to, quoteNumber, title, link string) Message {
	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body>
    <p>Hello,</p>
    <p>Your proposal <strong>%s</strong> (%s) is ready for review.</p>
    <p><a href="%s">View proposal</a></p>
</body>
</html>
	`, title, quoteNumber, link)

	return Message{
		To:      to,
		Subject: fmt.Sprintf("Proposal %s is ready for review", quoteNumber),
		HTML:    html,
	}
}

// QuoteResponded формирует внутреннее уведомление об ответе клиента.
func QuoteResponded(to, quoteNumber, action, clientName, note string) Message {
	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body>
    <p>Proposal <strong>%s</strong> was %s by %s.</p>
    <p>%s</p>
</body>
</html>
	`, quoteNumber, action, clientName, note)

	return Message{
		To:      to,
		Subject: fmt.Sprintf("Proposal %s %s", quoteNumber, action),
		HTML:    html,
	}
}
