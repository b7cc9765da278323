// Package engine wraps one Transmission client per endpoint behind a
// uniform interface, normalizing torrent records and classifying failures
// as Unreachable or Rejected. It never retries; retry policy belongs to
// the caller.
package engine

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/guiyumin/transmote/internal/metrics"
	"github.com/guiyumin/transmote/internal/transmission"
)

// Engine is the per-endpoint torrent facade consumed by the bot and the
// notification poller.
type Engine interface {
	// Name returns the endpoint name this engine is bound to.
	Name() string
	List(ctx context.Context) ([]TorrentSummary, error)
	Add(ctx context.Context, src AddSource) (AddResult, error)
	Do(ctx context.Context, id int64, action Action) error
	Files(ctx context.Context, id int64) ([]FileInfo, error)
	SetFilesWanted(ctx context.Context, id int64, indices []int, wanted bool) error
	FreeSpace(ctx context.Context) (int64, error)
}

type transmissionEngine struct {
	name string
	c    *transmission.Client
}

// New binds a Transmission client to an endpoint name.
func New(name string, c *transmission.Client) Engine {
	return &transmissionEngine{name: name, c: c}
}

func (e *transmissionEngine) Name() string {
	return e.name
}

func (e *transmissionEngine) List(ctx context.Context) ([]TorrentSummary, error) {
	defer e.observe("list")()

	torrents, err := e.c.Torrents(ctx)
	if err != nil {
		return nil, e.wrap("list", err)
	}

	out := make([]TorrentSummary, len(torrents))
	for i, t := range torrents {
		out[i] = e.summarize(t)
	}
	return out, nil
}

func (e *transmissionEngine) Add(ctx context.Context, src AddSource) (AddResult, error) {
	defer e.observe("add")()

	req := transmission.AddRequest{}
	switch {
	case src.Magnet != "":
		req.Filename = src.Magnet
	case src.URL != "":
		req.Filename = src.URL
	case len(src.FileBytes) > 0:
		req.MetaInfo = base64.StdEncoding.EncodeToString(src.FileBytes)
	default:
		return AddResult{}, &Error{Kind: Rejected, Endpoint: e.name, Op: "add", Err: errors.New("empty torrent source")}
	}

	added, duplicate, err := e.c.Add(ctx, req)
	if err != nil {
		return AddResult{}, e.wrap("add", err)
	}
	if duplicate {
		return AddResult{}, &Error{
			Kind:     Rejected,
			Endpoint: e.name,
			Op:       "add",
			Err:      fmt.Errorf("duplicate torrent: %s", added.Name),
		}
	}
	return AddResult{ID: added.ID, Name: added.Name}, nil
}

func (e *transmissionEngine) Do(ctx context.Context, id int64, action Action) error {
	defer e.observe(action.String())()

	var err error
	switch action {
	case ActionStart:
		err = e.c.Start(ctx, id)
	case ActionStop:
		err = e.c.Stop(ctx, id)
	case ActionVerify:
		err = e.c.Verify(ctx, id)
	case ActionRemove:
		err = e.c.Remove(ctx, id, false)
	case ActionRemoveData:
		err = e.c.Remove(ctx, id, true)
	default:
		return &Error{Kind: Rejected, Endpoint: e.name, Op: "action", Err: fmt.Errorf("unknown action %d", action)}
	}
	if err != nil {
		return e.wrap(action.String(), err)
	}
	return nil
}

func (e *transmissionEngine) Files(ctx context.Context, id int64) ([]FileInfo, error) {
	defer e.observe("files")()

	files, stats, err := e.c.Files(ctx, id)
	if err != nil {
		return nil, e.wrap("files", err)
	}
	if len(files) == 0 {
		return nil, &Error{Kind: Rejected, Endpoint: e.name, Op: "files", Err: fmt.Errorf("torrent %d not found", id)}
	}

	out := make([]FileInfo, len(files))
	for i, f := range files {
		wanted := true
		if i < len(stats) {
			wanted = stats[i].Wanted
		}
		out[i] = FileInfo{Index: i, Name: f.Name, Size: f.Length, Wanted: wanted}
	}
	return out, nil
}

func (e *transmissionEngine) SetFilesWanted(ctx context.Context, id int64, indices []int, wanted bool) error {
	defer e.observe("set-files")()

	var err error
	if wanted {
		err = e.c.SetFilesWanted(ctx, id, indices, nil)
	} else {
		err = e.c.SetFilesWanted(ctx, id, nil, indices)
	}
	if err != nil {
		return e.wrap("set-files", err)
	}
	return nil
}

func (e *transmissionEngine) FreeSpace(ctx context.Context) (int64, error) {
	defer e.observe("free-space")()

	info, err := e.c.Session(ctx)
	if err != nil {
		return 0, e.wrap("free-space", err)
	}
	free, err := e.c.FreeSpace(ctx, info.DownloadDir)
	if err != nil {
		return 0, e.wrap("free-space", err)
	}
	return free, nil
}

func (e *transmissionEngine) summarize(t transmission.Torrent) TorrentSummary {
	return TorrentSummary{
		Endpoint:     e.name,
		ID:           t.ID,
		Name:         t.Name,
		Status:       mapStatus(t),
		Progress:     t.PercentDone,
		Size:         t.TotalSize,
		DownloadRate: t.RateDownload,
		UploadRate:   t.RateUpload,
		ETA:          t.ETA,
	}
}

// mapStatus normalizes the daemon status. A torrent whose wanted files
// are complete counts as Finished once it has left the active download
// phase, whether it went on seeding or was stopped. Verification wins
// over completion so a re-verify regresses the status and a later
// re-finish is a fresh completion.
func mapStatus(t transmission.Torrent) Status {
	if t.Error != 0 {
		return StatusError
	}

	done := t.PercentDone >= 1.0
	switch t.Status {
	case transmission.StatusQueuedVerify, transmission.StatusVerifying:
		return StatusVerifying
	case transmission.StatusStopped:
		if done {
			return StatusFinished
		}
		return StatusStopped
	case transmission.StatusQueuedSeed, transmission.StatusSeeding:
		if done {
			return StatusFinished
		}
		return StatusSeeding
	case transmission.StatusQueuedDown, transmission.StatusDownloading:
		return StatusDownloading
	default:
		return StatusStopped
	}
}

// wrap classifies a client error: RPC-level rejections keep their reason,
// everything else (timeouts, refused connections, auth failures, bad
// status codes) is Unreachable.
func (e *transmissionEngine) wrap(op string, err error) error {
	kind := Unreachable
	var rerr *transmission.ResultError
	if errors.As(err, &rerr) {
		kind = Rejected
	}
	metrics.EngineErrorsTotal.WithLabelValues(e.name, kind.String()).Inc()
	return &Error{Kind: kind, Endpoint: e.name, Op: op, Err: err}
}

func (e *transmissionEngine) observe(op string) func() {
	start := time.Now()
	return func() {
		metrics.EngineCallSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
