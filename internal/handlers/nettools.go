package handlers

import (
	"context"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"

	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/handlers/base"
	"github.com/iamwavecut/multibot/internal/i18n"
	"github.com/iamwavecut/multibot/internal/router"
)

const (
	statusKeyword     = "st"
	probeTimeout      = 10 * time.Second
	probeBodyDrainMax = 64 << 10
)

// ProbeResult describes one HTTP reachability check.
type ProbeResult struct {
	URL        string
	StatusCode int
	Status     string
	Server     string
	Latency    time.Duration
}

func (r ProbeResult) OK() bool {
	return r.StatusCode > 0 && r.StatusCode < 500
}

type Prober struct {
	client *http.Client
	now    func() time.Time
}

var (
	errBlockedAddress = errors.New("address is not publicly routable")
	sharedAddrSpace   = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}
)

// NewProber uses client as is. A nil client gets one that refuses to connect
// to loopback, private and link-local addresses, redirects included.
func NewProber(client *http.Client) *Prober {
	if client == nil {
		client = publicOnlyClient(probeTimeout)
	}
	return &Prober{client: client, now: time.Now}
}

func publicOnlyClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: timeout, Control: refuseInternal}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: timeout,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// refuseInternal runs after name resolution, so it sees the address actually dialed.
func refuseInternal(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return errors.Wrap(err, "split dial address")
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublic(ip) {
		return errors.WithMessage(errBlockedAddress, host)
	}
	return nil
}

func isPublic(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || sharedAddrSpace.Contains(ip))
}

// NormalizeTarget turns "example.com" into "https://example.com". Only http
// and https are accepted.
func NormalizeTarget(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", errors.New("empty target")
	}
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", errors.Wrap(err, "parse target")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("missing host")
	}
	return u.String(), nil
}

func (p *Prober) Probe(ctx context.Context, target string) (ProbeResult, error) {
	u, err := NormalizeTarget(target)
	if err != nil {
		return ProbeResult{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return ProbeResult{}, errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", "multibot-status/1.0")

	start := p.now()
	resp, err := p.client.Do(req)
	if err != nil {
		return ProbeResult{URL: u}, errors.Wrap(err, "request")
	}
	defer resp.Body.Close()
	_, _ = io.CopyN(io.Discard, resp.Body, probeBodyDrainMax)

	return ProbeResult{
		URL:        u,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Server:     resp.Header.Get("Server"),
		Latency:    p.now().Sub(start).Round(time.Millisecond),
	}, nil
}

// NetTools serves the website status checks and WHOIS lookups.
type NetTools struct {
	*base.BaseHandler
	prober *Prober
	whois  WhoisLookup
}

func NewNetTools(d Deps) *NetTools {
	lookup := d.WhoisLookup
	if lookup == nil {
		lookup = NewWhoisLookup(whoisTimeout)
	}
	return &NetTools{
		BaseHandler: base.NewBaseHandler(d.Responder, d.Users, "nettools"),
		prober:      NewProber(d.HTTPClient),
		whois:       lookup,
	}
}

func (n *NetTools) register(t *router.Table) error {
	if err := t.Register("nettools.status", router.Command("status"), n.handleStatus); err != nil {
		return err
	}
	if err := t.Register("nettools.whois", router.Command("whois"), n.handleWhois); err != nil {
		return err
	}
	return t.Register("nettools.inline", router.QueryPrefix(statusKeyword), n.handleInline)
}

func (n *NetTools) render(lang string, target string, res ProbeResult, err error) string {
	if err != nil || !res.OK() {
		detail := res.Status
		if err != nil {
			detail = i18n.Get("unreachable", lang)
		}
		return fmt.Sprintf("❌ <b>%s</b> %s\n<code>%s</code>", i18n.Get("Not available", lang), html.EscapeString(target), html.EscapeString(detail))
	}
	lines := []string{
		fmt.Sprintf("✅ <b>%s</b> %s", i18n.Get("Available", lang), html.EscapeString(res.URL)),
		fmt.Sprintf("%s: <code>%s</code>", i18n.Get("Status", lang), html.EscapeString(res.Status)),
		fmt.Sprintf("%s: <code>%s</code>", i18n.Get("Response time", lang), res.Latency),
	}
	if res.Server != "" {
		lines = append(lines, fmt.Sprintf("%s: <code>%s</code>", i18n.Get("Server", lang), html.EscapeString(res.Server)))
	}
	return strings.Join(lines, "\n")
}

func (n *NetTools) handleStatus(ctx context.Context, ev *event.Event) error {
	if ev.Args == "" {
		return n.Usage(ctx, ev, "/status &lt;domain&gt;", "/status example.com")
	}
	target := strings.Fields(ev.Args)[0]
	if _, err := NormalizeTarget(target); err != nil {
		return n.Usage(ctx, ev, "/status &lt;domain&gt;", "/status example.com")
	}
	lang := n.Lang(ctx, ev)
	if err := n.Responder().Reply(ctx, ev, "🔍 "+i18n.Get("Checking website status...", lang)+" "+html.EscapeString(target)); err != nil {
		return err
	}

	res, err := n.prober.Probe(ctx, target)
	if err != nil {
		n.GetLogger().WithError(err).WithField("target", target).Debug("probe failed")
	}
	return n.Responder().Reply(ctx, ev, n.render(lang, target, res, err))
}

func (n *NetTools) handleInline(ctx context.Context, ev *event.Event) error {
	target := base.QueryArgs(ev, statusKeyword)
	if target == "" {
		return nil
	}
	if _, err := NormalizeTarget(target); err != nil {
		return nil
	}
	lang := n.Lang(ctx, ev)
	res, err := n.prober.Probe(ctx, target)
	description := i18n.Get("Not available", lang)
	if err == nil && res.OK() {
		description = fmt.Sprintf("%s · %s", res.Status, res.Latency)
	}
	return n.Responder().AnswerInline(ctx, ev, event.InlineAnswer{
		Results: []event.InlineResult{{
			ID:          uuid.New(),
			Title:       i18n.Get("Website status", lang) + ": " + target,
			Description: description,
			MessageText: n.render(lang, target, res, err),
		}},
		CacheTime: 30,
	})
}
