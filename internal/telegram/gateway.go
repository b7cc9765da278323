package telegram

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/guiyumin/transmote/internal/bot"
)

// Gateway adapts the Bot API client to the messaging surface the state
// machine and the notification poller render through.
type Gateway struct {
	c        *Client
	username string // bot's own @username, for mention stripping
}

// NewGateway verifies the token with getMe and returns a ready gateway.
func NewGateway(ctx context.Context, token string) (*Gateway, error) {
	c := NewClient(token)
	me, err := c.getMe(ctx)
	if err != nil {
		return nil, err
	}
	log.Info().Str("username", me.Username).Int64("id", me.ID).Msg("telegram bot identified")
	return &Gateway{c: c, username: me.Username}, nil
}

// Events long-polls getUpdates and emits normalized events until the
// context is cancelled. The channel closes on shutdown.
func (g *Gateway) Events(ctx context.Context) <-chan bot.Event {
	out := make(chan bot.Event)
	go func() {
		defer close(out)
		var offset int64
		for {
			updates, next, err := g.c.getUpdates(ctx, offset)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn().Err(err).Msg("getUpdates failed, retrying")
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}
			offset = next

			for _, u := range updates {
				ev, ok := g.convert(u)
				if !ok {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// convert maps one raw update to a normalized event. Updates the bot
// has no use for (edits, joins, messages from other bots) are dropped.
func (g *Gateway) convert(u update) (bot.Event, bool) {
	if u.CallbackQuery != nil {
		cq := u.CallbackQuery
		if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
			return bot.Event{}, false
		}
		return bot.Event{
			UserID:    cq.From.ID,
			ChatID:    cq.Message.Chat.ID,
			MessageID: cq.Message.MessageID,
			Kind:      bot.KindCallback,
			Callback: &bot.Callback{
				ID:        cq.ID,
				MessageID: cq.Message.MessageID,
				Data:      cq.Data,
			},
		}, true
	}

	msg := u.Message
	if msg == nil || msg.Chat == nil || msg.From == nil || msg.From.IsBot {
		return bot.Event{}, false
	}

	ev := bot.Event{
		UserID:    msg.From.ID,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
	}

	if msg.Document != nil {
		ev.Kind = bot.KindDocument
		ev.Document = &bot.Document{FileID: msg.Document.FileID, FileName: msg.Document.FileName}
		return ev, true
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		text = strings.TrimSpace(msg.Caption)
	}
	if text == "" {
		return bot.Event{}, false
	}

	if strings.HasPrefix(text, "/") {
		cmd, args := splitCommand(text, g.username)
		if cmd == "" {
			return bot.Event{}, false
		}
		ev.Kind = bot.KindCommand
		ev.Command = cmd
		ev.Args = args
		return ev, true
	}

	ev.Kind = bot.KindText
	ev.Text = text
	return ev, true
}

// splitCommand parses "/cmd@BotName args" into a lowercase command and
// its argument tail. A mention of a different bot yields no command.
func splitCommand(text, username string) (cmd, args string) {
	rest := strings.TrimPrefix(text, "/")
	if i := strings.IndexAny(rest, " \t\n"); i >= 0 {
		cmd, args = rest[:i], strings.TrimSpace(rest[i+1:])
	} else {
		cmd = rest
	}
	if at := strings.Index(cmd, "@"); at >= 0 {
		mention := cmd[at+1:]
		cmd = cmd[:at]
		if username != "" && !strings.EqualFold(mention, username) {
			return "", ""
		}
	}
	return strings.ToLower(cmd), args
}

func markup(kb bot.Keyboard) *inlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]inlineKeyboardButton, len(kb))
	for i, row := range kb {
		rows[i] = make([]inlineKeyboardButton, len(row))
		for j, b := range row {
			rows[i][j] = inlineKeyboardButton{Text: b.Text, CallbackData: b.Data}
		}
	}
	return &inlineKeyboardMarkup{InlineKeyboard: rows}
}

func (g *Gateway) SendMessage(ctx context.Context, chatID int64, text string, kb bot.Keyboard) (int64, error) {
	return g.c.sendMessage(ctx, sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		DisableWebPagePreview: true,
		ReplyMarkup:           markup(kb),
	})
}

func (g *Gateway) EditMessage(ctx context.Context, chatID, messageID int64, text string, kb bot.Keyboard) error {
	return g.c.editMessageText(ctx, editMessageTextRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: markup(kb),
	})
}

func (g *Gateway) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return g.c.answerCallbackQuery(ctx, answerCallbackQueryRequest{CallbackQueryID: callbackID, Text: text})
}

func (g *Gateway) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	return g.c.downloadFile(ctx, fileID)
}

// SendText is the plain-text notification entry point used by the
// completion poller.
func (g *Gateway) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := g.c.sendMessage(ctx, sendMessageRequest{ChatID: chatID, Text: text, DisableWebPagePreview: true})
	return err
}
