package handlers

import (
	"context"
	"html"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"

	"github.com/iamwavecut/multibot/internal/event"
	"github.com/iamwavecut/multibot/internal/handlers/base"
	"github.com/iamwavecut/multibot/internal/i18n"
	"github.com/iamwavecut/multibot/internal/router"
)

const (
	qrKeyword      = "qr"
	qrFileName     = "qr.png"
	qrPreviewRunes = 50
	// Negative sizes make go-qrcode scale by pixels per module.
	qrPixelsPerModule = -10
)

// EncodeQR renders content as a PNG QR code with low error correction.
func EncodeQR(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Low, qrPixelsPerModule)
	if err != nil {
		return nil, errors.Wrap(err, "encode qr")
	}
	return png, nil
}

// QR generates QR codes. Inline answers need an uploaded photo, so they are
// only served when a dump chat is configured to host the upload.
type QR struct {
	*base.BaseHandler
	dumpChatID int64
}

func NewQR(d Deps) *QR {
	return &QR{
		BaseHandler: base.NewBaseHandler(d.Responder, d.Users, "qr"),
		dumpChatID:  d.QRDumpChatID,
	}
}

func (q *QR) register(t *router.Table) error {
	if err := t.Register("qr.command", router.Command("qr"), q.handleCommand); err != nil {
		return err
	}
	return t.Register("qr.inline", router.QueryPrefix(qrKeyword), q.handleInline)
}

func (q *QR) handleCommand(ctx context.Context, ev *event.Event) error {
	if ev.Args == "" {
		return q.Usage(ctx, ev, "/qr &lt;text&gt;", "/qr Hello World")
	}
	lang := q.Lang(ctx, ev)
	png, err := EncodeQR(ev.Args)
	if err != nil {
		q.GetLogger().WithError(err).Debug("qr rejected")
		return q.Responder().Reply(ctx, ev, "❌ "+i18n.Get("Text is too long for a QR code", lang))
	}

	caption := "✅ " + i18n.Get("QR code created", lang) + ": <code>" + html.EscapeString(truncateRunes(ev.Args, qrPreviewRunes)) + "</code>"
	if len([]rune(ev.Args)) > qrPreviewRunes {
		caption += "..."
	}
	_, err = q.Responder().SendPhoto(ctx, ev.ChatID, event.Photo{Name: qrFileName, Data: png, Caption: caption})
	return err
}

func (q *QR) handleInline(ctx context.Context, ev *event.Event) error {
	content := base.QueryArgs(ev, qrKeyword)
	if content == "" {
		return nil
	}
	if q.dumpChatID == 0 {
		q.GetLogger().Trace("inline qr needs a dump chat")
		return nil
	}
	png, err := EncodeQR(content)
	if err != nil {
		return nil
	}
	fileID, err := q.Responder().SendPhoto(ctx, q.dumpChatID, event.Photo{Name: qrFileName, Data: png})
	if err != nil {
		return errors.WithMessage(err, "cant upload qr to dump chat")
	}

	lang := q.Lang(ctx, ev)
	return q.Responder().AnswerInline(ctx, ev, event.InlineAnswer{
		Results: []event.InlineResult{{
			ID:          uuid.New(),
			Title:       i18n.Get("QR code", lang),
			Description: truncateRunes(content, qrPreviewRunes),
			MessageText: "✅ " + i18n.Get("QR code generated", lang),
			PhotoFileID: fileID,
		}},
		CacheTime:  60,
		IsPersonal: true,
	})
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
