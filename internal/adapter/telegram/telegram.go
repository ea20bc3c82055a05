// Package telegram delivers notifications through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/leonid-shevtsov/telegold"
	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"

	"kittenfeed/internal/domain"
)

const defaultBaseURL = "https://api.telegram.org"

var markdown = goldmark.New(goldmark.WithRenderer(telegold.NewRenderer()))

// Notifier sends Markdown messages as Telegram HTML. Without a bot token it
// only logs.
type Notifier struct {
	token   string
	baseURL string
	client  *http.Client
	log     logrus.FieldLogger
}

var _ domain.Notifier = (*Notifier)(nil)

// New creates a Notifier for botToken.
func New(botToken string, log logrus.FieldLogger) *Notifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Notifier{
		token:   botToken,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// WithBaseURL points the notifier at another Bot API server.
func (n *Notifier) WithBaseURL(u string) *Notifier {
	n.baseURL = strings.TrimRight(u, "/")
	return n
}

// Enabled reports whether a bot token is configured.
func (n *Notifier) Enabled() bool {
	return n.token != ""
}

// Notify sends text to chatID. It first sends HTML and retries as plain text
// when Telegram rejects the markup. Without a token it returns
// domain.ErrNotifierDisabled.
func (n *Notifier) Notify(ctx context.Context, chatID int64, text string) error {
	if !n.Enabled() {
		n.log.WithField("chat_id", chatID).Info("telegram disabled, notification dropped")
		return domain.ErrNotifierDisabled
	}

	status, body, err := n.send(ctx, map[string]any{
		"chat_id":    chatID,
		"text":       ToHTML(text),
		"parse_mode": "HTML",
	})
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}
	if !strings.Contains(body, "can't parse entities") {
		return fmt.Errorf("telegram: status %d: %s", status, body)
	}

	n.log.WithField("chat_id", chatID).Warn("telegram rejected HTML, retrying as plain text")
	status, body, err = n.send(ctx, map[string]any{
		"chat_id": chatID,
		"text":    StripMarkdown(text),
	})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("telegram (plain): status %d: %s", status, body)
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, payload map[string]any) (int, string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, "", err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, string(body), nil
}

// ToHTML converts Markdown to the HTML subset Telegram accepts. On failure
// the input is returned unchanged.
func ToHTML(text string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return text
	}
	return strings.TrimSpace(buf.String())
}

var (
	linkPattern   = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	headerPattern = regexp.MustCompile(`(?m)^#{1,6}\s+`)
)

// StripMarkdown removes Markdown markers for the plain-text fallback.
func StripMarkdown(text string) string {
	for _, marker := range []string{"**", "__", "~~", "`", "*"} {
		text = strings.ReplaceAll(text, marker, "")
	}
	text = headerPattern.ReplaceAllString(text, "")
	return linkPattern.ReplaceAllString(text, "$1 ($2)")
}
