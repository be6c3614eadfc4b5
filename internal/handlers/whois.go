package handlers

import (
	"context"
	"html"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/likexian/whois"
	"github.com/pkg/errors"

	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/i18n"
)

const (
	whoisTimeout      = 10 * time.Second
	whoisMaxLines     = 20
	whoisFallbackSize = 500
)

// WhoisLookup returns the raw WHOIS record for a domain or IP address.
type WhoisLookup func(ctx context.Context, target string) (string, error)

// whoisFields are the record keys worth showing in a chat.
var whoisFields = map[string]bool{
	"country":                       true,
	"organization":                  true,
	"org-name":                      true,
	"orgname":                       true,
	"netname":                       true,
	"isp":                           true,
	"origin":                        true,
	"originas":                      true,
	"registrar":                     true,
	"registrant country":            true,
	"creation date":                 true,
	"registry expiry date":          true,
	"registrar abuse contact email": true,
}

// NewWhoisLookup queries the registries over port 43. The client has no
// context support, so a cancelled ctx abandons the running query.
func NewWhoisLookup(timeout time.Duration) WhoisLookup {
	if timeout <= 0 {
		timeout = whoisTimeout
	}
	client := whois.NewClient().SetTimeout(timeout)
	return func(ctx context.Context, target string) (string, error) {
		type answer struct {
			text string
			err  error
		}
		ch := make(chan answer, 1)
		go func() {
			text, err := client.Whois(target)
			ch <- answer{text: text, err: err}
		}()
		select {
		case a := <-ch:
			return a.text, errors.Wrap(a.err, "whois query")
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// WhoisTarget extracts the host to look up. URLs are reduced to their
// hostname. Only IP addresses and dotted domain names pass.
func WhoisTarget(arg string) (string, bool) {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return "", false
	}
	target := fields[0]
	if strings.Contains(target, "://") {
		u, err := url.Parse(target)
		if err != nil {
			return "", false
		}
		target = u.Hostname()
	}
	if ip := net.ParseIP(target); ip != nil {
		return ip.String(), true
	}
	target = strings.ToLower(strings.TrimSuffix(target, "."))
	if !strings.Contains(target, ".") || len(target) > 253 {
		return "", false
	}
	for _, label := range strings.Split(target, ".") {
		if label == "" || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
			return "", false
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
				return "", false
			}
		}
	}
	return target, true
}

// SummarizeWhois keeps the notable record lines, or the head of the record
// when none are found.
func SummarizeWhois(raw string) string {
	seen := map[string]bool{}
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		if !whoisFields[strings.ToLower(strings.TrimSpace(key))] || seen[strings.ToLower(line)] {
			continue
		}
		seen[strings.ToLower(line)] = true
		lines = append(lines, line)
		if len(lines) == whoisMaxLines {
			break
		}
	}
	if len(lines) > 0 {
		return strings.Join(lines, "\n")
	}
	raw = strings.TrimSpace(raw)
	if head := truncateRunes(raw, whoisFallbackSize); head != raw {
		return head + "..."
	}
	return raw
}

func (n *NetTools) handleWhois(ctx context.Context, ev *event.Event) error {
	target, ok := WhoisTarget(ev.Args)
	if !ok {
		return n.Usage(ctx, ev, "/whois &lt;domain|ip&gt;", "/whois 8.8.8.8", "/whois example.com")
	}
	lang := n.Lang(ctx, ev)

	raw, err := n.whois(ctx, target)
	if err != nil {
		n.GetLogger().WithError(err).WithField("target", target).Debug("whois failed")
		return n.Responder().Reply(ctx, ev, "❌ "+i18n.Get("WHOIS lookup failed", lang)+" <code>"+html.EscapeString(target)+"</code>")
	}
	summary := SummarizeWhois(raw)
	if summary == "" {
		summary = i18n.Get("Nothing found", lang)
	}
	text := "🔍 <b>" + i18n.Get("WHOIS information", lang) + " " + html.EscapeString(target) + ":</b>\n\n" +
		"<code>" + html.EscapeString(summary) + "</code>"
	return n.Responder().Reply(ctx, ev, text)
}
