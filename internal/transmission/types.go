package transmission

import "encoding/json"

// RPC envelope structures, per the Transmission RPC specification:
// https://github.com/transmission/transmission/blob/main/docs/rpc-spec.md
type rpcRequest struct {
	Method    string      `json:"method"`
	Arguments interface{} `json:"arguments,omitempty"`
	Tag       int         `json:"tag,omitempty"`
}

type rpcResponse struct {
	Result    string          `json:"result"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Tag       int             `json:"tag,omitempty"`
}

// Daemon torrent status codes.
const (
	StatusStopped      = 0
	StatusQueuedVerify = 1
	StatusVerifying    = 2
	StatusQueuedDown   = 3
	StatusDownloading  = 4
	StatusQueuedSeed   = 5
	StatusSeeding      = 6
)

var torrentFields = []string{
	"id", "hashString", "name", "status", "percentDone",
	"totalSize", "rateDownload", "rateUpload",
	"eta", "errorString", "error",
}

// Torrent is the subset of torrent-get fields the bot consumes.
type Torrent struct {
	ID           int64   `json:"id"`
	HashString   string  `json:"hashString"`
	Name         string  `json:"name"`
	Status       int     `json:"status"`
	PercentDone  float64 `json:"percentDone"`
	TotalSize    int64   `json:"totalSize"`
	RateDownload int64   `json:"rateDownload"`
	RateUpload   int64   `json:"rateUpload"`
	ETA          int64   `json:"eta"`
	ErrorString  string  `json:"errorString"`
	Error        int     `json:"error"`
}

// File is one entry of a torrent's "files" array.
type File struct {
	Name   string `json:"name"`
	Length int64  `json:"length"`
}

// FileStat is one entry of a torrent's "fileStats" array, index-aligned
// with File.
type FileStat struct {
	Wanted   bool `json:"wanted"`
	Priority int  `json:"priority"`
}

// Added describes the torrent returned by torrent-add.
type Added struct {
	ID         int64  `json:"id"`
	HashString string `json:"hashString"`
	Name       string `json:"name"`
}

// AddRequest carries the torrent-add arguments. Exactly one of Filename
// (magnet link or .torrent URL) and MetaInfo (base64 .torrent contents)
// must be set.
type AddRequest struct {
	Filename string
	MetaInfo string
	Paused   bool
}

// SessionInfo is the subset of session-get the bot consumes.
type SessionInfo struct {
	Version     string `json:"version"`
	DownloadDir string `json:"download-dir"`
}
