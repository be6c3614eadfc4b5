package handlers

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iamwavecut/tool"
	"github.com/pborman/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/handlers/base"
	"github.com/iamwavecut/multibot/internal/i18n"
	"github.com/iamwavecut/multibot/internal/moderation"
	"github.com/iamwavecut/multibot/internal/router"
)

const adminDateLayout = "2006-01-02 15:04:05"

// Admin serves the privileged commands. Its routes only match the admin's
// user id, so anyone else falls through as if the commands did not exist.
type Admin struct {
	*base.BaseHandler
	bans     moderation.BanService
	users    userDirectory
	adminID  int64
	gatherer prometheus.Gatherer
	now      func() time.Time
}

func NewAdmin(d Deps) *Admin {
	return &Admin{
		BaseHandler: base.NewBaseHandler(d.Responder, d.Users, "admin"),
		bans:        d.Bans,
		users:       d.Users,
		adminID:     d.AdminID,
		gatherer:    d.Gatherer,
		now:         time.Now,
	}
}

func (a *Admin) register(t *router.Table) error {
	isAdmin := router.From(a.adminID)
	routes := []struct {
		name    string
		match   router.Predicate
		handler router.Handler
	}{
		{"admin.ban", router.All(isAdmin, router.Command("ban")), a.handleBan},
		{"admin.unban", router.All(isAdmin, router.Command("unban")), a.handleUnban},
		{"admin.banned", router.All(isAdmin, router.Command("banned")), a.handleBanned},
		{"admin.userinfo", router.All(isAdmin, router.Command("userinfo")), a.handleUserInfo},
		{"admin.server", router.All(isAdmin, router.Command("server")), a.handleServer},
		{"admin.stats", router.All(isAdmin, router.Command("stats")), a.handleStats},
		{"admin.sys", router.All(isAdmin, router.QueryPrefix("sys")), a.handleInlineServer},
	}
	for _, r := range routes {
		if err := t.Register(r.name, r.match, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// splitFirstField cuts s at the first run of whitespace of any kind.
func splitFirstField(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// parseUserID accepts a positive numeric id.
func parseUserID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (a *Admin) handleBan(ctx context.Context, ev *event.Event) error {
	if ev.Args == "" {
		return a.Usage(ctx, ev, "/ban &lt;user_id&gt; [reason]", "/ban 12345 Spam")
	}
	target, reason := splitFirstField(ev.Args)

	if strings.HasPrefix(target, "@") {
		return a.Responder().Reply(ctx, ev, "⚠️ "+a.T(ctx, ev, "Username banning requires user ID. Please use /ban &lt;user_id&gt; instead."))
	}
	userID, ok := parseUserID(target)
	if !ok {
		return a.Responder().Reply(ctx, ev, "❌ "+a.T(ctx, ev, "Invalid format. Use a numeric user ID."))
	}

	record, err := a.bans.Ban(ctx, userID, strconv.FormatInt(ev.UserID, 10), reason)
	if err != nil {
		return err
	}

	a.GetLogger().WithField("user_id", userID).Info("banned via command")
	lang := a.Lang(ctx, ev)
	text := strings.Join([]string{
		"🚫 <b>" + i18n.Get("User Banned", lang) + "</b>",
		i18n.Get("User", lang) + ": " + html.EscapeString(record.DisplayName) + " (<code>" + strconv.FormatInt(userID, 10) + "</code>)",
		i18n.Get("Reason", lang) + ": " + html.EscapeString(record.Reason),
	}, "\n")
	return a.Responder().Reply(ctx, ev, text)
}

func (a *Admin) handleUnban(ctx context.Context, ev *event.Event) error {
	userID, ok := parseUserID(ev.Args)
	if !ok {
		return a.Usage(ctx, ev, "/unban &lt;user_id&gt;", "/unban 12345")
	}
	if err := a.bans.Unban(ctx, userID); err != nil {
		return err
	}
	lang := a.Lang(ctx, ev)
	text := "✅ <b>" + i18n.Get("User Unbanned", lang) + "</b>\n" +
		i18n.Get("User ID", lang) + ": <code>" + strconv.FormatInt(userID, 10) + "</code>"
	return a.Responder().Reply(ctx, ev, text)
}

func (a *Admin) handleBanned(ctx context.Context, ev *event.Event) error {
	bans, err := a.bans.ListBanned(ctx)
	if err != nil {
		return err
	}
	lang := a.Lang(ctx, ev)
	if len(bans) == 0 {
		return a.Responder().Reply(ctx, ev, "📋 "+i18n.Get("No banned users found.", lang))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚫 <b>%s</b> (%d):\n%s\n", i18n.Get("Banned Users", lang), len(bans), strings.Repeat("─", 30))
	for _, ban := range bans {
		fmt.Fprintf(&b, "👤 %s (<code>%d</code>)\n", html.EscapeString(ban.DisplayName), ban.UserID)
		fmt.Fprintf(&b, "📝 %s: %s\n", i18n.Get("Reason", lang), html.EscapeString(ban.Reason))
		fmt.Fprintf(&b, "🔨 %s: %s\n", i18n.Get("Banned by", lang), html.EscapeString(ban.BannedBy))
		fmt.Fprintf(&b, "📅 %s: %s\n", i18n.Get("Date", lang), ban.CreatedAt.Format(adminDateLayout))
		b.WriteString(strings.Repeat("─", 20) + "\n")
	}
	return a.Responder().Reply(ctx, ev, b.String())
}

func (a *Admin) handleUserInfo(ctx context.Context, ev *event.Event) error {
	if ev.Args == "" {
		return a.Usage(ctx, ev, "/userinfo &lt;user_id&gt;", "/userinfo 12345")
	}
	userID, ok := parseUserID(ev.Args)
	if !ok {
		return a.Responder().Reply(ctx, ev, "❌ "+a.T(ctx, ev, "User ID must be a number"))
	}

	lang := a.Lang(ctx, ev)
	last, err := a.users.LastSeen(ctx, userID)
	if err != nil {
		return err
	}
	status := i18n.Get("Active", lang)
	if a.bans.IsBanned(ctx, userID) {
		status = i18n.Get("BANNED", lang)
	}

	na := i18n.Get("N/A", lang)
	firstName, lastName, userName, seen := na, na, na, na
	if last != nil {
		firstName = orDefault(html.EscapeString(last.FirstName), na)
		lastName = orDefault(html.EscapeString(last.LastName), na)
		if last.UserName != "" {
			userName = "@" + html.EscapeString(last.UserName)
		}
		seen = last.CreatedAt.Format(adminDateLayout)
	}

	lines := []string{
		"👤 <b>" + i18n.Get("User Information", lang) + "</b>",
		strings.Repeat("─", 25),
		"🆔 ID: <code>" + strconv.FormatInt(userID, 10) + "</code>",
		"👤 " + i18n.Get("First Name", lang) + ": " + firstName,
		"👥 " + i18n.Get("Last Name", lang) + ": " + lastName,
		"🏷️ " + i18n.Get("Username", lang) + ": " + userName,
		"🌐 " + i18n.Get("Language", lang) + ": " + strings.ToUpper(a.users.GetLanguage(ctx, userID)),
		"🕓 " + i18n.Get("Last seen", lang) + ": " + seen,
		"🚫 " + i18n.Get("Status", lang) + ": " + status,
	}
	return a.Responder().Reply(ctx, ev, strings.Join(lines, "\n"))
}

func (a *Admin) handleServer(ctx context.Context, ev *event.Event) error {
	info := CollectSystemInfo(a.gatherer, a.now())
	return a.Responder().Reply(ctx, ev, info.Render(a.T(ctx, ev, "System Monitor")))
}

func (a *Admin) handleStats(ctx context.Context, ev *event.Event) error {
	stats, err := a.users.Stats(ctx)
	if err != nil {
		return err
	}
	lang := a.Lang(ctx, ev)
	text := tool.ExecTemplate(`📊 <b>{{ .title }}</b>
{{ .interactions_label }}: {{ .interactions }}
{{ .users_label }}: {{ .users }}
{{ .banned_label }}: {{ .banned }}`, map[string]any{
		"title":              i18n.Get("Statistics", lang),
		"interactions_label": i18n.Get("Interactions", lang),
		"interactions":       stats.Interactions,
		"users_label":        i18n.Get("Users", lang),
		"users":              stats.Users,
		"banned_label":       i18n.Get("Banned", lang),
		"banned":             stats.Banned,
	})
	return a.Responder().Reply(ctx, ev, text)
}

func (a *Admin) handleInlineServer(ctx context.Context, ev *event.Event) error {
	info := CollectSystemInfo(a.gatherer, a.now())
	return a.Responder().AnswerInline(ctx, ev, event.InlineAnswer{
		Results: []event.InlineResult{{
			ID:          uuid.New(),
			Title:       a.T(ctx, ev, "Show server status"),
			Description: fmt.Sprintf("Uptime: %s | Heap: %.1fMB", info.Uptime, info.HeapMB),
			MessageText: info.Render(a.T(ctx, ev, "System Monitor")),
		}},
		CacheTime:  10,
		IsPersonal: true,
	})
}
