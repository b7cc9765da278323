package engine

// Status is the normalized torrent state shown to users and tracked by
// the notification poller.
type Status int

const (
	StatusDownloading Status = iota
	StatusSeeding
	StatusStopped
	StatusVerifying
	StatusFinished
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusDownloading:
		return "downloading"
	case StatusSeeding:
		return "seeding"
	case StatusStopped:
		return "stopped"
	case StatusVerifying:
		return "verifying"
	case StatusFinished:
		return "finished"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// TorrentSummary is the normalized per-torrent snapshot. Never persisted;
// recomputed on every poll or query.
type TorrentSummary struct {
	Endpoint     string
	ID           int64
	Name         string
	Status       Status
	Progress     float64 // [0,1]
	Size         int64
	DownloadRate int64 // bytes/sec
	UploadRate   int64 // bytes/sec
	ETA          int64 // seconds, -1 if unknown
}

// FileInfo describes one file inside a torrent.
type FileInfo struct {
	Index  int
	Name   string
	Size   int64
	Wanted bool
}

// AddSource is one torrent to add: exactly one field group is set.
type AddSource struct {
	// Magnet is a magnet URI.
	Magnet string
	// URL is an HTTP(S) link to a .torrent file, fetched by the daemon.
	URL string
	// FileBytes is the raw contents of an uploaded .torrent file.
	FileBytes []byte
	FileName  string
}

// AddResult identifies the torrent created (or found) by Add.
type AddResult struct {
	ID   int64
	Name string
}

// Action is a lifecycle operation on an existing torrent.
type Action int

const (
	ActionStart Action = iota
	ActionStop
	ActionVerify
	ActionRemove
	// ActionRemoveData removes the torrent and deletes its downloaded files.
	ActionRemoveData
)

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionStop:
		return "stop"
	case ActionVerify:
		return "verify"
	case ActionRemove:
		return "remove"
	case ActionRemoveData:
		return "remove-data"
	default:
		return "unknown"
	}
}
