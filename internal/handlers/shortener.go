package handlers

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"

	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/handlers/base"
	"github.com/iamwavecut/multibot/internal/i18n"
	"github.com/iamwavecut/multibot/internal/router"
)

const (
	shortKeyword          = "short"
	DefaultShortenerURL   = "https://tinyurl.com/api-create.php"
	shortenCommandTimeout = 10 * time.Second
	shortenInlineTimeout  = 3 * time.Second
	shortenBodyMax        = 2 << 10
)

// Shortener turns long links into TinyURL-style short ones. The endpoint takes
// the link in the url query parameter and answers with the short link as plain text.
type Shortener struct {
	*base.BaseHandler
	client   *http.Client
	endpoint string
}

func NewShortener(d Deps) *Shortener {
	client := d.HTTPClient
	if client == nil {
		client = publicOnlyClient(shortenCommandTimeout)
	}
	endpoint := d.ShortenerURL
	if endpoint == "" {
		endpoint = DefaultShortenerURL
	}
	return &Shortener{
		BaseHandler: base.NewBaseHandler(d.Responder, d.Users, "shortener"),
		client:      client,
		endpoint:    endpoint,
	}
}

func (s *Shortener) register(t *router.Table) error {
	if err := t.Register("shortener.command", router.Command("short"), s.handleCommand); err != nil {
		return err
	}
	return t.Register("shortener.inline", router.QueryPrefix(shortKeyword), s.handleInline)
}

func isWebLink(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func (s *Shortener) Shorten(ctx context.Context, long string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+url.Values{"url": {long}}.Encode(), nil)
	if err != nil {
		return "", errors.Wrap(err, "build request")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "request")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("shortener responded %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, shortenBodyMax))
	if err != nil {
		return "", errors.Wrap(err, "read response")
	}
	short := strings.TrimSpace(string(body))
	if !isWebLink(short) {
		return "", errors.Errorf("unexpected shortener response %q", truncateRunes(short, 64))
	}
	return short, nil
}

func ellipsize(s string, n int) string {
	if head := truncateRunes(s, n); head != s {
		return head + "..."
	}
	return s
}

func (s *Shortener) handleCommand(ctx context.Context, ev *event.Event) error {
	if ev.Args == "" {
		return s.Usage(ctx, ev, "/short &lt;url&gt;", "/short https://example.com/very/long/url")
	}
	lang := s.Lang(ctx, ev)
	long := strings.Fields(ev.Args)[0]
	if !isWebLink(long) {
		return s.Responder().Reply(ctx, ev, "❌ "+i18n.Get("Please provide a valid URL starting with http:// or https://", lang))
	}

	short, err := s.Shorten(ctx, long, shortenCommandTimeout)
	if err != nil {
		s.GetLogger().WithError(err).Debug("shorten failed")
		return s.Responder().Reply(ctx, ev, "❌ "+i18n.Get("Could not shorten the link", lang))
	}
	text := strings.Join([]string{
		"🔗 <b>" + i18n.Get("Shortened URL", lang) + ":</b>",
		strings.Repeat("─", 20),
		"<b>" + i18n.Get("Short", lang) + ":</b>",
		html.EscapeString(short),
		"",
		"<b>" + i18n.Get("Original", lang) + ":</b>",
		html.EscapeString(ellipsize(long, 100)),
	}, "\n")
	return s.Responder().Reply(ctx, ev, text)
}

func (s *Shortener) handleInline(ctx context.Context, ev *event.Event) error {
	long := base.QueryArgs(ev, shortKeyword)
	if !isWebLink(long) {
		return nil
	}
	short, err := s.Shorten(ctx, long, shortenInlineTimeout)
	if err != nil {
		s.GetLogger().WithError(err).Debug("inline shorten failed")
		return nil
	}
	lang := s.Lang(ctx, ev)
	text := fmt.Sprintf("🔗 <b>%s:</b>\n%s: %s\n%s: %s",
		i18n.Get("Shortened URL", lang),
		i18n.Get("Short", lang), html.EscapeString(short),
		i18n.Get("Original", lang), html.EscapeString(ellipsize(long, 80)))
	return s.Responder().AnswerInline(ctx, ev, event.InlineAnswer{
		Results: []event.InlineResult{{
			ID:          uuid.New(),
			Title:       i18n.Get("Short", lang) + ": " + ellipsize(long, 50),
			Description: "→ " + short,
			MessageText: text,
		}},
		CacheTime:  300,
		IsPersonal: true,
	})
}
