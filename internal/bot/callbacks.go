package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/guiyumin/transmote/internal/engine"
	"github.com/guiyumin/transmote/internal/registry"
	"github.com/guiyumin/transmote/internal/session"
)

// Callback data grammar, colon-separated:
//
//	list:{offset}            re-render a list page in place
//	detail:{id}              open the torrent action menu
//	t:{id}:{action}          start|stop|verify|files|remove
//	del:{id}:{keep|data}     remove confirmation
//	f:{flowID}:{idx|ok|cancel}   file selection
//	batch:{flowID}:{ok|cancel}   batch add
//	pick:{flowID}:{name}     endpoint pick
func (b *Bot) onCallback(ctx context.Context, ev Event) {
	cb := ev.Callback
	if cb == nil {
		return
	}

	parts := strings.SplitN(cb.Data, ":", 3)
	switch parts[0] {
	case "list":
		offset := 0
		if len(parts) > 1 {
			offset, _ = strconv.Atoi(parts[1])
		}
		b.answer(ctx, cb.ID, "")
		b.sendList(ctx, ev, offset)

	case "detail":
		if len(parts) < 2 {
			return
		}
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		b.showDetail(ctx, ev, id)

	case "t":
		if len(parts) < 3 {
			return
		}
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		b.onTorrentAction(ctx, ev, id, parts[2])

	case "del":
		if len(parts) < 3 {
			return
		}
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		b.onDelete(ctx, ev, id, parts[2] == "data")

	case "f":
		if len(parts) < 3 {
			return
		}
		b.onFileSelection(ctx, ev, parts[1], parts[2])

	case "batch":
		if len(parts) < 3 {
			return
		}
		b.onBatchDecision(ctx, ev, parts[1], parts[2])

	case "pick":
		if len(parts) < 3 {
			return
		}
		b.onEndpointPick(ctx, ev, parts[1], parts[2])

	default:
		b.answer(ctx, cb.ID, "")
	}
}

// findTorrent locates one torrent in the endpoint's current snapshot.
func (b *Bot) findTorrent(ctx context.Context, endpoint string, id int64) (engine.TorrentSummary, error) {
	eng, err := b.engineFor(endpoint)
	if err != nil {
		return engine.TorrentSummary{}, err
	}
	torrents, err := eng.List(ctx)
	if err != nil {
		return engine.TorrentSummary{}, err
	}
	for _, t := range torrents {
		if t.ID == id {
			return t, nil
		}
	}
	return engine.TorrentSummary{}, errTorrentNotFound
}

var errTorrentNotFound = &engine.Error{Kind: engine.Rejected, Op: "find", Err: errors.New("torrent not found")}

func (b *Bot) showDetail(ctx context.Context, ev Event, id int64) {
	cb := ev.Callback
	endpoint := b.sessions.Get(ev.UserID).Endpoint

	t, err := b.findTorrent(ctx, endpoint, id)
	if err != nil {
		b.answer(ctx, cb.ID, callbackErrorText(err))
		return
	}
	b.answer(ctx, cb.ID, "")
	text, kb := renderDetail(t)
	b.edit(ctx, ev.ChatID, cb.MessageID, text, kb)
}

func (b *Bot) onTorrentAction(ctx context.Context, ev Event, id int64, action string) {
	cb := ev.Callback
	endpoint := b.sessions.Get(ev.UserID).Endpoint

	switch action {
	case "start", "stop", "verify":
		eng, err := b.engineFor(endpoint)
		if err != nil {
			b.answer(ctx, cb.ID, msgNoEndpoint)
			return
		}
		act := map[string]engine.Action{
			"start":  engine.ActionStart,
			"stop":   engine.ActionStop,
			"verify": engine.ActionVerify,
		}[action]
		if err := eng.Do(ctx, id, act); err != nil {
			b.answer(ctx, cb.ID, callbackErrorText(err))
			return
		}
		b.answer(ctx, cb.ID, "OK")
		b.showDetail(ctx, ev, id)

	case "files":
		b.startFileSelection(ctx, ev, endpoint, id)

	case "remove":
		kb := Keyboard{
			{
				{Text: "🗑 Remove torrent", Data: "del:" + strconv.FormatInt(id, 10) + ":keep"},
				{Text: "💥 Remove + data", Data: "del:" + strconv.FormatInt(id, 10) + ":data"},
			},
			{{Text: "⬅️ Back", Data: "detail:" + strconv.FormatInt(id, 10)}},
		}
		b.answer(ctx, cb.ID, "")
		b.edit(ctx, ev.ChatID, cb.MessageID, "Remove this torrent?", kb)

	default:
		b.answer(ctx, cb.ID, "")
	}
}

func (b *Bot) onDelete(ctx context.Context, ev Event, id int64, deleteData bool) {
	cb := ev.Callback
	endpoint := b.sessions.Get(ev.UserID).Endpoint

	eng, err := b.engineFor(endpoint)
	if err != nil {
		b.answer(ctx, cb.ID, msgNoEndpoint)
		return
	}

	action := engine.ActionRemove
	if deleteData {
		action = engine.ActionRemoveData
	}
	if err := eng.Do(ctx, id, action); err != nil {
		b.answer(ctx, cb.ID, callbackErrorText(err))
		return
	}
	b.answer(ctx, cb.ID, "Removed")
	b.sendList(ctx, ev, 0)
}

// startFileSelection opens the file dialog as the user's new active flow.
func (b *Bot) startFileSelection(ctx context.Context, ev Event, endpoint string, id int64) {
	cb := ev.Callback

	eng, err := b.engineFor(endpoint)
	if err != nil {
		b.answer(ctx, cb.ID, msgNoEndpoint)
		return
	}
	files, err := eng.Files(ctx, id)
	if err != nil {
		b.answer(ctx, cb.ID, callbackErrorText(err))
		return
	}

	b.cancelActiveFlow(ctx, ev)

	flow := &session.FileSelection{
		ID:        session.NewFlowID(),
		Endpoint:  endpoint,
		TorrentID: id,
		Files:     files,
		Selected:  make(map[int]bool, len(files)),
	}
	for _, f := range files {
		if f.Wanted {
			flow.Selected[f.Index] = true
		}
	}
	b.sessions.SetFlow(ev.UserID, flow)

	b.answer(ctx, cb.ID, "")
	text, kb := renderFileSelection(viewOf(flow))
	b.edit(ctx, ev.ChatID, cb.MessageID, text, kb)
}

func viewOf(f *session.FileSelection) *fileSelectionView {
	count := 0
	for _, sel := range f.Selected {
		if sel {
			count++
		}
	}
	return &fileSelectionView{
		flowID:        f.ID,
		files:         f.Files,
		selected:      f.Selected,
		selectedCount: count,
	}
}

func (b *Bot) onFileSelection(ctx context.Context, ev Event, flowID, arg string) {
	cb := ev.Callback

	// Snapshot the flow under the session lock; stale ids get a fixed
	// notice and touch nothing.
	var flow *session.FileSelection
	b.sessions.Do(ev.UserID, func(s *session.Session) {
		if f, ok := s.Flow.(*session.FileSelection); ok && f.ID == flowID {
			flow = f
			if idx, err := strconv.Atoi(arg); err == nil {
				f.Selected[idx] = !f.Selected[idx]
			}
		}
	})
	if flow == nil {
		b.answer(ctx, cb.ID, msgMenuExpired)
		return
	}

	switch arg {
	case "ok":
		b.commitFileSelection(ctx, ev, flow)
	case "cancel":
		b.sessions.SetFlow(ev.UserID, nil)
		b.answer(ctx, cb.ID, "Cancelled")
		b.edit(ctx, ev.ChatID, cb.MessageID, "File selection cancelled.", nil)
	default:
		// Toggle already applied; re-render in place. The dialog never
		// auto-closes on toggles.
		b.answer(ctx, cb.ID, "")
		text, kb := renderFileSelection(viewOf(flow))
		b.edit(ctx, ev.ChatID, cb.MessageID, text, kb)
	}
}

// commitFileSelection pushes the pending selection to the daemon. An
// empty selection means "download no files" and is forwarded as-is; the
// daemon's rejection, if any, is surfaced verbatim.
func (b *Bot) commitFileSelection(ctx context.Context, ev Event, flow *session.FileSelection) {
	cb := ev.Callback

	eng, err := b.engineFor(flow.Endpoint)
	if err != nil {
		b.answer(ctx, cb.ID, msgNoEndpoint)
		return
	}

	var wanted, unwanted []int
	for _, f := range flow.Files {
		if flow.Selected[f.Index] {
			wanted = append(wanted, f.Index)
		} else {
			unwanted = append(unwanted, f.Index)
		}
	}

	if len(wanted) > 0 {
		if err := eng.SetFilesWanted(ctx, flow.TorrentID, wanted, true); err != nil {
			b.answer(ctx, cb.ID, callbackErrorText(err))
			return
		}
	}
	if len(unwanted) > 0 {
		if err := eng.SetFilesWanted(ctx, flow.TorrentID, unwanted, false); err != nil {
			b.answer(ctx, cb.ID, callbackErrorText(err))
			return
		}
	}

	b.sessions.SetFlow(ev.UserID, nil)
	b.answer(ctx, cb.ID, "Saved")
	b.edit(ctx, ev.ChatID, cb.MessageID, "File selection saved.", nil)
}

func (b *Bot) onBatchDecision(ctx context.Context, ev Event, flowID, decision string) {
	cb := ev.Callback

	var flow *session.BatchAdd
	b.sessions.Do(ev.UserID, func(s *session.Session) {
		if f, ok := s.Flow.(*session.BatchAdd); ok && f.ID == flowID {
			flow = f
		}
	})
	if flow == nil {
		b.answer(ctx, cb.ID, msgMenuExpired)
		return
	}

	switch decision {
	case "cancel":
		b.sessions.SetFlow(ev.UserID, nil)
		b.answer(ctx, cb.ID, "")
		b.edit(ctx, ev.ChatID, cb.MessageID, msgBatchCancelled, nil)

	case "ok":
		if len(flow.Links) == 0 {
			b.answer(ctx, cb.ID, "No links collected yet")
			return
		}
		b.answer(ctx, cb.ID, "")

		// Multi-endpoint mode asks where the batch should go; the sole
		// endpoint needs no question.
		if b.reg.Len() > 1 {
			pick := &session.EndpointPick{
				ID:      session.NewFlowID(),
				Purpose: session.PickForAdd,
				Pending: flow.Links,
			}
			b.sessions.SetFlow(ev.UserID, pick)
			text, kb := renderEndpointPick(pick.ID, b.reg.List(), flow.Endpoint, "Add to which endpoint?")
			b.edit(ctx, ev.ChatID, cb.MessageID, text, kb)
			return
		}

		b.sessions.SetFlow(ev.UserID, nil)
		b.addBatch(ctx, ev, b.reg.Default().Name, flow.Links)
	}
}

func (b *Bot) onEndpointPick(ctx context.Context, ev Event, flowID, name string) {
	cb := ev.Callback

	var flow *session.EndpointPick
	b.sessions.Do(ev.UserID, func(s *session.Session) {
		if f, ok := s.Flow.(*session.EndpointPick); ok && f.ID == flowID {
			flow = f
		}
	})
	if flow == nil {
		b.answer(ctx, cb.ID, msgMenuExpired)
		return
	}

	// An endpoint that vanished from the registry leaves the session's
	// previous selection untouched; the picker stays open.
	if _, err := b.reg.Resolve(name); errors.Is(err, registry.ErrNotFound) {
		b.answer(ctx, cb.ID, msgNoEndpoint)
		return
	}

	b.sessions.SetEndpoint(ev.UserID, name)
	b.sessions.SetFlow(ev.UserID, nil)

	switch flow.Purpose {
	case session.PickForAdd:
		b.answer(ctx, cb.ID, "")
		b.edit(ctx, ev.ChatID, cb.MessageID, "Adding to "+name+"…", nil)
		b.addBatch(ctx, ev, name, flow.Pending)
	default:
		b.answer(ctx, cb.ID, "")
		b.edit(ctx, ev.ChatID, cb.MessageID, "Endpoint switched to "+name+".", nil)
	}
}

// callbackErrorText is the short form shown in callback toasts.
func callbackErrorText(err error) string {
	if engine.IsUnreachable(err) {
		return "Endpoint unreachable, " + msgTryAgain
	}
	return engineErrorReason(err)
}
