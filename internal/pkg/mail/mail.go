package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"
)

const defaultResendEndpoint = "https://api.resend.com/emails"

// Config holds mail relay settings.
type Config struct {
	Enable    bool
	From      string
	ReplyTo   string
	ResendKey string
	// Endpoint overrides the Resend API URL.
	Endpoint string
}

// Message is a single email to send.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender sends emails through the Resend HTTP API.
type Sender struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Sender {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultResendEndpoint
	}
	return &Sender{cfg: cfg, client: &http.Client{Timeout: 15 * time.Second}}
}

// Enabled reports whether Send will actually dispatch mail.
func (s *Sender) Enabled() bool {
	return s != nil && s.cfg.Enable && s.cfg.ResendKey != ""
}

// Send dispatches an email. It is a no-op when the relay is disabled.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	if !s.Enabled() || len(msg.To) == 0 {
		return nil
	}

	body := map[string]interface{}{
		"from":    s.cfg.From,
		"to":      msg.To,
		"subject": msg.Subject,
		"html":    msg.HTML,
	}
	if s.cfg.ReplyTo != "" {
		body["reply_to"] = s.cfg.ReplyTo
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.ResendKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("resend error %d: %s", resp.StatusCode, errResp.Message)
	}
	return nil
}

const postPublishedTpl = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
</head>
<body style="background-color:#fff;margin:0 auto;font-family:ui-sans-serif,system-ui,-apple-system,Segoe UI,Roboto,Helvetica Neue,Arial,sans-serif;padding:.5rem">
  <div style="max-width:550px;margin:40px auto;padding:20px;border:1px solid #c2410c;border-radius:.25rem">
    <h1 style="font-size:18px;font-weight:400;text-align:center;margin:24px 0">Post publicado no Instagram</h1>
    <p style="font-size:14px;line-height:24px"><strong>{{.Title}}</strong></p>
    {{if .ImageURL}}<img src="{{.ImageURL}}" alt="" style="display:block;width:100%;border-radius:.5rem" />{{end}}
    {{if .Caption}}<p style="font-size:13px;line-height:22px;white-space:pre-line;background:#f3f4f6;border-radius:.5rem;padding:.75rem">{{.Caption}}</p>{{end}}
    {{if .Permalink}}<p style="margin-top:24px"><a href="{{.Permalink}}" style="background:#c2410c;color:#fff;padding:8px 16px;text-decoration:none;border-radius:4px">Ver no Instagram</a></p>{{end}}
    <p style="color:#999;font-size:12px">Publicado em {{.PublishedAt}} · {{year}}</p>
  </div>
</body>
</html>`

// PostPublishedData fills the post-published notification.
type PostPublishedData struct {
	Title       string
	Caption     string
	ImageURL    string
	Permalink   string
	PublishedAt string
}

func renderTemplate(tpl string, data interface{}) (string, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"year": func() int {
			return time.Now().Year()
		},
	}).Parse(tpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SendPostPublished notifies the team that a post went live.
func (s *Sender) SendPostPublished(ctx context.Context, to []string, data PostPublishedData) error {
	if strings.TrimSpace(data.Title) == "" {
		data.Title = "Novo post"
	}
	html, err := renderTemplate(postPublishedTpl, data)
	if err != nil {
		return err
	}
	return s.Send(ctx, Message{
		To:      to,
		Subject: "[Mapa Cultural] " + data.Title + " foi publicado",
		HTML:    html,
	})
}
