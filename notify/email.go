package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"
)

// email request payload for ZeptoMail API
type emailRequest struct {
	From     emailAddress  `json:"from"`
	To       []toRecipient `json:"to"`
	Subject  string        `json:"subject"`
	HtmlBody string        `json:"htmlbody"`
}

type emailAddress struct {
	Address string `json:"address"`
}

type toRecipient struct {
	Email emailWithName `json:"email_address"`
}

type emailWithName struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Email mails every event to the group treasurer through the ZeptoMail HTTP API.
type Email struct {
	APIURL string // e.g. https://api.zeptomail.com/v1.1/email
	APIKey string // e.g. Zoho-enczapikey xxxxx
	From   string
	To     string
	ToName string
	Client *http.Client
}

func (m *Email) Notify(ctx context.Context, e Event) error {
	if m.APIURL == "" || m.APIKey == "" || m.From == "" || m.To == "" {
		return fmt.Errorf("missing required email config")
	}

	subject, body := render(e)
	payload := emailRequest{
		From: emailAddress{Address: m.From},
		To: []toRecipient{
			{Email: emailWithName{Address: m.To, Name: m.ToName}},
		},
		Subject:  subject,
		HtmlBody: body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.APIURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", m.APIKey)

	client := m.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zeptomail API error: %s", resp.Status)
	}
	return nil
}

func render(e Event) (string, string) {
	switch e.Action {
	case ActionContribution:
		subject := fmt.Sprintf("Contribution recorded: %s (%s)", e.MemberName, e.Month)
		body := fmt.Sprintf("<p><b>%s</b> contributed KES %.2f for %s.</p>",
			html.EscapeString(e.MemberName), e.Amount, html.EscapeString(e.Month))
		return subject, body
	default:
		subject := fmt.Sprintf("Balance sheet updated for %s", e.Month)
		body := fmt.Sprintf("<p>The %s monthly report was saved (%s, revision %s).</p>",
			html.EscapeString(e.Month), html.EscapeString(e.Backend), html.EscapeString(shortSHA(e.SHA)))
		return subject, body
	}
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
