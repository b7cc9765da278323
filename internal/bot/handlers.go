package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/guiyumin/transmote/internal/engine"
	"github.com/guiyumin/transmote/internal/session"
)

func (b *Bot) onCommand(ctx context.Context, ev Event) {
	switch ev.Command {
	case "start", "help":
		b.send(ctx, ev.ChatID, msgUsage, nil)

	case "list", "torrents":
		// Read-only: leaves any active flow untouched.
		b.sendList(ctx, ev, 0)

	case "add":
		b.cancelActiveFlow(ctx, ev)
		flow := &session.BatchAdd{ID: session.NewFlowID(), Endpoint: b.sessions.Get(ev.UserID).Endpoint}
		b.sessions.SetFlow(ev.UserID, flow)
		b.send(ctx, ev.ChatID, "Send me magnet links or .torrent URLs. Confirm when done.", nil)

	case "endpoints", "settings":
		if b.reg.Len() == 1 {
			b.send(ctx, ev.ChatID, fmt.Sprintf("Single endpoint configured: %s", b.reg.Default().Name), nil)
			return
		}
		b.cancelActiveFlow(ctx, ev)
		flow := &session.EndpointPick{ID: session.NewFlowID(), Purpose: session.PickSwitchDefault}
		b.sessions.SetFlow(ev.UserID, flow)
		text, kb := renderEndpointPick(flow.ID, b.reg.List(), b.sessions.Get(ev.UserID).Endpoint, "Choose an endpoint:")
		b.send(ctx, ev.ChatID, text, kb)

	case "free":
		eng, err := b.engineFor(b.sessions.Get(ev.UserID).Endpoint)
		if err != nil {
			b.send(ctx, ev.ChatID, msgNoEndpoint, nil)
			return
		}
		free, err := eng.FreeSpace(ctx)
		if err != nil {
			b.send(ctx, ev.ChatID, engineErrorText(err), nil)
			return
		}
		b.send(ctx, ev.ChatID, fmt.Sprintf("💾 Free space on %s: %s", eng.Name(), formatSize(free)), nil)

	case "cancel":
		if !b.cancelActiveFlow(ctx, ev) {
			b.send(ctx, ev.ChatID, "Nothing to cancel.", nil)
		}

	default:
		b.send(ctx, ev.ChatID, "Unknown command. Try /help.", nil)
	}
}

func (b *Bot) onText(ctx context.Context, ev Event) {
	links := ExtractLinks(ev.Text)
	if len(links) == 0 {
		b.send(ctx, ev.ChatID, msgNothingAdded, nil)
		return
	}

	// An open batch absorbs further links; anything else is superseded.
	var batch *session.BatchAdd
	b.sessions.Do(ev.UserID, func(s *session.Session) {
		if f, ok := s.Flow.(*session.BatchAdd); ok {
			f.Links = append(f.Links, links...)
			batch = f
		}
	})
	if batch != nil {
		text, kb := renderBatch(batch.ID, batch.Links)
		b.send(ctx, ev.ChatID, text, kb)
		return
	}

	b.cancelActiveFlow(ctx, ev)

	// Single-endpoint mode never asks; the links go straight in.
	if b.reg.Len() == 1 {
		b.addBatch(ctx, ev, b.reg.Default().Name, links)
		return
	}

	flow := &session.BatchAdd{
		ID:       session.NewFlowID(),
		Links:    links,
		Endpoint: b.sessions.Get(ev.UserID).Endpoint,
	}
	b.sessions.SetFlow(ev.UserID, flow)
	text, kb := renderBatch(flow.ID, flow.Links)
	b.send(ctx, ev.ChatID, text, kb)
}

func (b *Bot) onDocument(ctx context.Context, ev Event) {
	doc := ev.Document
	if doc == nil {
		return
	}
	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".torrent") {
		b.send(ctx, ev.ChatID, "I only handle .torrent files.", nil)
		return
	}

	data, err := b.gw.DownloadFile(ctx, doc.FileID)
	if err != nil {
		log.Warn().Err(err).Str("file", doc.FileName).Msg("document download failed")
		b.send(ctx, ev.ChatID, "Failed to fetch the file, "+msgTryAgain+".", nil)
		return
	}

	endpoint := b.sessions.Get(ev.UserID).Endpoint
	eng, err := b.engineFor(endpoint)
	if err != nil {
		b.send(ctx, ev.ChatID, msgNoEndpoint, nil)
		return
	}

	res, err := eng.Add(ctx, engine.AddSource{FileBytes: data, FileName: doc.FileName})
	if err != nil {
		b.send(ctx, ev.ChatID, engineErrorText(err), nil)
		return
	}
	b.send(ctx, ev.ChatID, fmt.Sprintf("✅ Added: %s", res.Name), postAddKeyboard(res.ID))
}

// sendList queries the user's endpoint and sends (messageID == 0) or
// edits one page of torrents.
func (b *Bot) sendList(ctx context.Context, ev Event, offset int) {
	endpoint := b.sessions.Get(ev.UserID).Endpoint
	eng, err := b.engineFor(endpoint)
	if err != nil {
		b.send(ctx, ev.ChatID, msgNoEndpoint, nil)
		return
	}

	torrents, err := eng.List(ctx)
	if err != nil {
		b.send(ctx, ev.ChatID, engineErrorText(err), nil)
		return
	}

	text, kb := renderList(endpoint, torrents, offset, b.reg.Len() > 1)
	if ev.Kind == KindCallback && ev.Callback != nil {
		b.edit(ctx, ev.ChatID, ev.Callback.MessageID, text, kb)
		return
	}
	b.send(ctx, ev.ChatID, text, kb)
}

// addBatch adds every link independently and reports per-link outcomes.
// A rejected link never aborts the rest of the batch, and already-added
// torrents stay added.
func (b *Bot) addBatch(ctx context.Context, ev Event, endpoint string, links []string) {
	eng, err := b.engineFor(endpoint)
	if err != nil {
		b.send(ctx, ev.ChatID, msgNoEndpoint, nil)
		return
	}

	var sb strings.Builder
	var lastID int64
	var added int
	for _, link := range links {
		src := engine.AddSource{URL: link}
		if IsMagnet(link) {
			src = engine.AddSource{Magnet: link}
		}
		res, err := eng.Add(ctx, src)
		if err != nil {
			fmt.Fprintf(&sb, "❌ %s — %s\n", truncate(link, 50), engineErrorReason(err))
			continue
		}
		name := res.Name
		if name == "" {
			name = truncate(link, 50)
		}
		fmt.Fprintf(&sb, "✅ %s\n", name)
		lastID = res.ID
		added++
	}

	// A single successful add gets the follow-up keyboard so the file
	// selection dialog is one tap away.
	var kb Keyboard
	if added == 1 && len(links) == 1 {
		kb = postAddKeyboard(lastID)
	}
	b.send(ctx, ev.ChatID, sb.String(), kb)
}

func postAddKeyboard(id int64) Keyboard {
	return Keyboard{{
		{Text: "📂 Select files", Data: fmt.Sprintf("t:%d:files", id)},
		{Text: "⚙️ Actions", Data: fmt.Sprintf("detail:%d", id)},
	}}
}

// engineErrorText converts an engine failure into the full user-visible
// message.
func engineErrorText(err error) string {
	if engine.IsUnreachable(err) {
		return "⚠️ Endpoint unreachable, " + msgTryAgain + "."
	}
	return "❌ " + engineErrorReason(err)
}

// engineErrorReason extracts the short reason used inside batch reports.
func engineErrorReason(err error) string {
	var ee *engine.Error
	if errors.As(err, &ee) {
		if ee.Kind == engine.Unreachable {
			return "endpoint unreachable, " + msgTryAgain
		}
		return ee.Err.Error()
	}
	return err.Error()
}
