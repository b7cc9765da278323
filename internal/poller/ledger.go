package poller

import "github.com/guiyumin/transmote/internal/engine"

type ledgerKey struct {
	Endpoint string
	ID       int64
}

// ledger tracks the last-known status per (endpoint, torrent id). It is
// owned and mutated exclusively by the poller task; ticks never overlap,
// so no locking is needed.
type ledger map[ledgerKey]engine.Status

// shouldNotify reports whether the summary is a fresh completion: the
// torrent is Finished and was absent or not Finished on the previous
// observation. A regressed torrent (re-verify, restart) that finishes
// again is a fresh completion.
func (l ledger) shouldNotify(t engine.TorrentSummary) bool {
	if t.Status != engine.StatusFinished {
		return false
	}
	prev, seen := l[ledgerKey{t.Endpoint, t.ID}]
	return !seen || prev != engine.StatusFinished
}

// update records the latest status.
func (l ledger) update(t engine.TorrentSummary) {
	l[ledgerKey{t.Endpoint, t.ID}] = t.Status
}

// evictMissing drops every entry for the endpoint whose id is absent
// from the snapshot, so a reused id can notify again later.
func (l ledger) evictMissing(endpoint string, snapshot []engine.TorrentSummary) {
	present := make(map[int64]bool, len(snapshot))
	for _, t := range snapshot {
		present[t.ID] = true
	}
	for key := range l {
		if key.Endpoint == endpoint && !present[key.ID] {
			delete(l, key)
		}
	}
}
