package bot

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"

	"github.com/iamwavecut/multibot/internal/event"
)

// sender is the part of *api.BotAPI the responder needs.
type sender interface {
	Send(c api.Chattable) (api.Message, error)
	Request(c api.Chattable) (*api.APIResponse, error)
}

type Responder struct {
	bot sender
}

func NewResponder(bot sender) *Responder {
	return &Responder{bot: bot}
}

func (r *Responder) Reply(ctx context.Context, ev *event.Event, text string) error {
	return r.SendTo(ctx, replyChat(ev), text)
}

func (r *Responder) SendTo(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := api.NewMessage(chatID, text)
	msg.ParseMode = api.ModeHTML
	msg.DisableNotification = true
	_, err := r.bot.Send(msg)
	return errors.WithMessage(err, "cant send message")
}

func (r *Responder) ReplyWithKeyboard(ctx context.Context, ev *event.Event, text string, keyboard [][]event.Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := api.NewMessage(replyChat(ev), text)
	msg.ParseMode = api.ModeHTML
	if markup := toMarkup(keyboard); markup != nil {
		msg.ReplyMarkup = *markup
	}
	_, err := r.bot.Send(msg)
	return errors.WithMessage(err, "cant send message with keyboard")
}

func (r *Responder) EditText(ctx context.Context, ev *event.Event, text string, keyboard [][]event.Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.ChatID == 0 || ev.MessageID == 0 {
		return r.ReplyWithKeyboard(ctx, ev, text, keyboard)
	}
	edit := api.NewEditMessageText(ev.ChatID, ev.MessageID, text)
	edit.ParseMode = api.ModeHTML
	edit.ReplyMarkup = toMarkup(keyboard)
	_, err := r.bot.Send(edit)
	return errors.WithMessage(err, "cant edit message")
}

func (r *Responder) AnswerCallback(ctx context.Context, ev *event.Event, text string, alert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := api.NewCallback(ev.RefID, text)
	if alert {
		cfg = api.NewCallbackWithAlert(ev.RefID, text)
	}
	_, err := r.bot.Request(cfg)
	return errors.WithMessage(err, "cant answer callback")
}

func (r *Responder) AnswerInline(ctx context.Context, ev *event.Event, answer event.InlineAnswer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	results := make([]interface{}, 0, len(answer.Results))
	for _, res := range answer.Results {
		if res.PhotoFileID != "" {
			photo := api.NewInlineQueryResultCachedPhoto(res.ID, res.PhotoFileID)
			photo.Title = res.Title
			photo.Description = res.Description
			photo.Caption = res.MessageText
			photo.ParseMode = api.ModeHTML
			results = append(results, photo)
			continue
		}
		article := api.NewInlineQueryResultArticleHTML(res.ID, res.Title, res.MessageText)
		article.Description = res.Description
		results = append(results, article)
	}
	_, err := r.bot.Request(api.InlineConfig{
		InlineQueryID: ev.RefID,
		Results:       results,
		CacheTime:     answer.CacheTime,
		IsPersonal:    answer.IsPersonal,
	})
	return errors.WithMessage(err, "cant answer inline query")
}

func (r *Responder) SendPhoto(ctx context.Context, chatID int64, p event.Photo) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	msg := api.NewPhoto(chatID, api.FileBytes{Name: p.Name, Bytes: p.Data})
	msg.Caption = p.Caption
	msg.ParseMode = api.ModeHTML
	msg.DisableNotification = true
	sent, err := r.bot.Send(msg)
	if err != nil {
		return "", errors.WithMessage(err, "cant send photo")
	}
	if len(sent.Photo) == 0 {
		return "", errors.New("sent message carries no photo")
	}
	return sent.Photo[len(sent.Photo)-1].FileID, nil
}

func (r *Responder) Notify(ctx context.Context, ev *event.Event, n event.Notice) error {
	switch ev.Kind {
	case event.KindCallback:
		return r.AnswerCallback(ctx, ev, n.Text, n.Alert)
	case event.KindCommand, event.KindText:
		return r.Reply(ctx, ev, n.Text)
	default:
		return nil
	}
}

// replyChat falls back to the user's private chat for callbacks on inline messages.
func replyChat(ev *event.Event) int64 {
	if ev.ChatID != 0 {
		return ev.ChatID
	}
	return ev.UserID
}

func toMarkup(keyboard [][]event.Button) *api.InlineKeyboardMarkup {
	if len(keyboard) == 0 {
		return nil
	}
	rows := make([][]api.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]api.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, api.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, api.NewInlineKeyboardRow(buttons...))
	}
	markup := api.NewInlineKeyboardMarkup(rows...)
	return &markup
}
