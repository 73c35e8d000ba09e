package mails

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"time"

	gomail "github.com/go-mail/mail/v2"
)

//go:embed "templates"
var templateFS embed.FS

const MagicLinkTemplate = "magic_link.tmpl"

type MagicLinkData struct {
	Link      string
	ExpiresIn time.Duration
}

type Sender interface {
	Send(ctx context.Context, recipient string, tmplName string, tmplData any) error
}

type Mailer struct {
	Dialer       *gomail.Dialer
	Sender       string
	RetriesCount int
}

func New(host string, port int, timeout time.Duration, username, password, sender string, retriesCount int) *Mailer {
	dialer := gomail.NewDialer(host, port, username, password)
	dialer.Timeout = timeout
	return &Mailer{
		Dialer:       dialer,
		Sender:       sender,
		RetriesCount: max(retriesCount, 1),
	}
}

func parseEmailTmpl(tmplName string, tmplData any) (map[string]string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+tmplName)
	if err != nil {
		return nil, err
	}
	tmplPartials := map[string]string{
		"subject":   "",
		"plainBody": "",
		"htmlBody":  "",
	}
	for key := range tmplPartials {
		buff := new(bytes.Buffer)
		if err = tmpl.ExecuteTemplate(buff, key, tmplData); err != nil {
			return nil, err
		}
		tmplPartials[key] = buff.String()
	}
	return tmplPartials, nil
}

func (m *Mailer) Send(ctx context.Context, recipient string, tmplName string, tmplData any) error {
	tmplPartials, err := parseEmailTmpl(tmplName, tmplData)
	if err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("To", recipient)
	msg.SetHeader("From", m.Sender)
	msg.SetHeader("Subject", tmplPartials["subject"])
	msg.SetBody("text/plain", tmplPartials["plainBody"])
	msg.AddAlternative("text/html", tmplPartials["htmlBody"])
	return retry(ctx, m.RetriesCount, func() error {
		return m.Dialer.DialAndSend(msg)
	})
}

// ApiMailer sends through a Mailtrap-compatible HTTP sending API.
type ApiMailer struct {
	ApiURL       string
	ApiToken     string
	Sender       string
	RetriesCount int
	Client       *http.Client
}

func (m *ApiMailer) Send(ctx context.Context, recipient string, tmplName string, tmplData any) error {
	tmplPartials, err := parseEmailTmpl(tmplName, tmplData)
	if err != nil {
		return err
	}
	from, err := mail.ParseAddress(m.Sender)
	if err != nil {
		return fmt.Errorf("invalid sender %q: %w", m.Sender, err)
	}
	payload, err := json.Marshal(map[string]any{
		"from":    map[string]string{"email": from.Address, "name": from.Name},
		"to":      []map[string]string{{"email": recipient}},
		"subject": tmplPartials["subject"],
		"text":    tmplPartials["plainBody"],
		"html":    tmplPartials["htmlBody"],
	})
	if err != nil {
		return err
	}
	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	return retry(ctx, max(m.RetriesCount, 1), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.ApiURL, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Add("Authorization", "Bearer "+m.ApiToken)
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		var bodyParsed struct {
			Errors []string `json:"errors"`
		}
		if json.Unmarshal(body, &bodyParsed) == nil && len(bodyParsed.Errors) > 0 {
			return fmt.Errorf("failed to send email: %v", bodyParsed.Errors)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("failed to send email: status %d", resp.StatusCode)
		}
		return nil
	})
}

// LogMailer writes the rendered plain body to the log instead of sending it.
// Used when no mail transport is configured.
type LogMailer struct {
	Log *slog.Logger
}

func (m *LogMailer) Send(_ context.Context, recipient string, tmplName string, tmplData any) error {
	tmplPartials, err := parseEmailTmpl(tmplName, tmplData)
	if err != nil {
		return err
	}
	m.Log.Info("mail not sent, no transport configured",
		"to", recipient,
		"subject", tmplPartials["subject"],
		"body", tmplPartials["plainBody"],
	)
	return nil
}

func retry(ctx context.Context, attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return err
}
