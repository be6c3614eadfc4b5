package handlers

import (
	"context"
	"html"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	errs "github.com/iamwavecut/multibot/internal/errors"
	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/handlers/base"
	"github.com/iamwavecut/multibot/internal/i18n"
	"github.com/iamwavecut/multibot/internal/router"
)

const (
	settingsLanguageData = "settings_language"
	settingsBackData     = "settings_back"
	languageDataPrefix   = "lang_"
)

var languageFlags = map[string]string{
	"en": "🇺🇸",
	"ru": "🇷🇺",
}

type Settings struct {
	*base.BaseHandler
	users userDirectory
}

func NewSettings(d Deps) *Settings {
	return &Settings{
		BaseHandler: base.NewBaseHandler(d.Responder, d.Users, "settings"),
		users:       d.Users,
	}
}

func (s *Settings) register(t *router.Table) error {
	if err := t.Register("settings.menu", router.Command("settings"), s.handleMenu); err != nil {
		return err
	}
	if err := t.Register("settings.language", router.All(router.Kind(event.KindCallback), matchData(settingsLanguageData)), s.handleLanguageList); err != nil {
		return err
	}
	if err := t.Register("settings.back", router.All(router.Kind(event.KindCallback), matchData(settingsBackData)), s.handleBack); err != nil {
		return err
	}
	return t.Register("settings.set_language", router.DataPrefix(languageDataPrefix), s.handleSetLanguage)
}

func matchData(data string) router.Predicate {
	return func(ev *event.Event) bool { return ev.Text == data }
}

func (s *Settings) menuText(ctx context.Context, ev *event.Event) string {
	lang := s.Lang(ctx, ev)
	userName := i18n.Get("N/A", lang)
	if ev.UserName != "" {
		userName = "@" + html.EscapeString(ev.UserName)
	}
	return strings.Join([]string{
		"⚙️ " + i18n.Get("Settings", lang),
		"",
		"👤 <b>" + i18n.Get("User Info:", lang) + "</b>",
		"ID: <code>" + strconv.FormatInt(ev.UserID, 10) + "</code>",
		i18n.Get("Username", lang) + ": " + userName,
		i18n.Get("Language", lang) + ": " + strings.ToUpper(lang),
	}, "\n")
}

func (s *Settings) menuKeyboard(ctx context.Context, ev *event.Event) [][]event.Button {
	return [][]event.Button{
		{{Text: "🌐 " + s.T(ctx, ev, "Language"), Data: settingsLanguageData}},
		{{Text: "🔙 " + s.T(ctx, ev, "Back"), Data: settingsBackData}},
	}
}

func languageKeyboard(current string) [][]event.Button {
	row := make([]event.Button, 0, len(i18n.GetLanguagesList()))
	for _, code := range i18n.GetLanguagesList() {
		text := strings.TrimSpace(languageFlags[code] + " " + i18n.GetLanguageName(code))
		if code == current {
			text += " ✅"
		}
		row = append(row, event.Button{Text: text, Data: languageDataPrefix + code})
	}
	return [][]event.Button{row}
}

func (s *Settings) handleMenu(ctx context.Context, ev *event.Event) error {
	return s.Responder().ReplyWithKeyboard(ctx, ev, s.menuText(ctx, ev), s.menuKeyboard(ctx, ev))
}

func (s *Settings) handleLanguageList(ctx context.Context, ev *event.Event) error {
	lang := s.Lang(ctx, ev)
	if err := s.Responder().EditText(ctx, ev, i18n.Get("Select your preferred language:", lang), languageKeyboard(lang)); err != nil {
		return err
	}
	return s.Responder().AnswerCallback(ctx, ev, "", false)
}

func (s *Settings) handleBack(ctx context.Context, ev *event.Event) error {
	if err := s.Responder().EditText(ctx, ev, s.menuText(ctx, ev), s.menuKeyboard(ctx, ev)); err != nil {
		return err
	}
	return s.Responder().AnswerCallback(ctx, ev, "", false)
}

func (s *Settings) handleSetLanguage(ctx context.Context, ev *event.Event) error {
	code := strings.TrimPrefix(ev.Text, languageDataPrefix)
	if err := s.users.SetLanguage(ctx, ev.UserID, code); err != nil {
		if errors.Is(err, errs.ErrInvalidInput) {
			return s.Responder().AnswerCallback(ctx, ev, "", false)
		}
		return err
	}
	lang := s.Lang(ctx, ev)
	if err := s.Responder().AnswerCallback(ctx, ev, "✅ "+i18n.Get("Language updated successfully!", lang), true); err != nil {
		return err
	}
	return s.Responder().EditText(ctx, ev, i18n.Get("Select your preferred language:", lang), languageKeyboard(lang))
}
