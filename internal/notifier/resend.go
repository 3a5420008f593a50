package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/unilibrary/bagdesk-api/internal/models"
)

const defaultResendBaseURL = "https://api.resend.com"

// ResendConfig configures the Resend email sender.
type ResendConfig struct {
	APIKey      string
	BaseURL     string
	FromAddress string
	ReplyTo     string
	Timeout     time.Duration
}

// ResendNotifier delivers notices through the Resend HTTP API.
type ResendNotifier struct {
	cfg    ResendConfig
	client *http.Client
}

// NewResend constructs a ResendNotifier.
func NewResend(cfg ResendConfig) *ResendNotifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultResendBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &ResendNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type resendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	ReplyTo string `json:"reply_to,omitempty"`
}

// SendCheckinNotice emails the tag code and QR reference after a check-in.
func (n *ResendNotifier) SendCheckinNotice(ctx context.Context, notice models.CheckinNotice) error {
	html, err := renderTemplate(checkinTemplate, notice)
	if err != nil {
		return fmt.Errorf("render checkin email: %w", err)
	}
	subject := fmt.Sprintf("UniLibrary bag check-in confirmed — %s", notice.TagCode)
	return n.send(ctx, notice.Email, subject, html)
}

// SendCheckoutNotice emails the visit summary after a check-out.
func (n *ResendNotifier) SendCheckoutNotice(ctx context.Context, notice models.CheckoutNotice) error {
	html, err := renderTemplate(checkoutTemplate, notice)
	if err != nil {
		return fmt.Errorf("render checkout email: %w", err)
	}
	subject := fmt.Sprintf("Thanks for visiting UniLibrary, %s!", notice.Name)
	return n.send(ctx, notice.Email, subject, html)
}

func (n *ResendNotifier) send(ctx context.Context, to, subject, html string) error {
	if n.cfg.APIKey == "" {
		return fmt.Errorf("resend api key not configured")
	}

	body, err := json.Marshal(resendRequest{
		From:    n.cfg.FromAddress,
		To:      to,
		Subject: subject,
		HTML:    html,
		ReplyTo: n.cfg.ReplyTo,
	})
	if err != nil {
		return fmt.Errorf("encode email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("resend returned %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}

func renderTemplate(tmpl *template.Template, data interface{}) (string, error) {
	buf := &bytes.Buffer{}
	if err := tmpl.Execute(buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var checkinTemplate = template.Must(template.New("checkin").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: sans-serif; background: #f5f5f5; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background: white; padding: 30px; border-radius: 8px;">
    <div style="background: #1e40af; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; margin: -30px -30px 20px;">
      <h1 style="margin: 0; font-size: 24px;">UniLibrary</h1>
      <p style="margin: 5px 0 0; opacity: 0.9;">Bag Check-In Confirmation</p>
    </div>
    <p>Hi <strong>{{.Name}}</strong>,</p>
    <p>Your bag has been checked in.</p>
    <div style="background: #f0f4ff; border-left: 4px solid #3b82f6; padding: 15px; margin: 20px 0; border-radius: 4px;">
      <strong>Bag:</strong> {{.BagDescription}}<br />
      <strong>Time:</strong> {{.CheckinTime}}<br />
      <strong>Reference Code:</strong> <span style="font-size: 16px; font-weight: bold; color: #3b82f6;">{{.TagCode}}</span>
    </div>
    <p style="font-size: 13px; color: #4b5563;">Present the reference code or the QR code at the desk to retrieve your bag. Check-in is valid until the end of the day.</p>
    <p style="margin-top: 30px; font-size: 12px; color: #9ca3af; border-top: 1px solid #e5e7eb; padding-top: 15px;">
      This is an automated message from UniLibrary. Please do not reply to this email.
    </p>
  </div>
</body>
</html>`))

var checkoutTemplate = template.Must(template.New("checkout").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: sans-serif; background: #0f172a; padding: 20px;">
  <div style="max-width: 640px; margin: 0 auto; background: white; padding: 32px; border-radius: 18px;">
    <div style="background: #4f46e5; color: white; padding: 24px; border-radius: 14px;">
      <h1 style="margin: 0; font-size: 26px;">Thanks for Visiting, {{.Name}}!</h1>
      <p style="margin: 6px 0 0; opacity: 0.9;">Reference code {{.TagCode}}</p>
    </div>
    <div style="margin: 24px 0; padding: 20px; background: #f1f5f9; border-radius: 12px;">
      <p style="margin: 0; color: #0f172a;">You checked out at <strong>{{.CheckoutTime}}</strong></p>
      <p style="margin: 6px 0 0; color: #0f172a;">Total time in the library: <strong>{{.DurationLabel}}</strong></p>
      {{if gt .StreakDays 1}}<p style="margin: 8px 0 0; color: #f97316; font-weight: bold;">{{.StreakDays}}-day streak</p>{{end}}
    </div>
    <p style="margin: 24px 0; color: #334155; line-height: 1.6;">{{.ThanksNote}}</p>
    <div style="margin-top: 32px; font-size: 12px; color: #94a3b8; border-top: 1px solid #e2e8f0; padding-top: 14px;">
      This message confirms your bag was checked out successfully.
    </div>
  </div>
</body>
</html>`))
