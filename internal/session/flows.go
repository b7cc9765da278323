package session

import (
	"github.com/google/uuid"

	"github.com/guiyumin/transmote/internal/engine"
)

// Flow is one in-progress multi-step interaction. The type is a closed
// sum: the state machine switches exhaustively over the three variants.
// Every instance carries a unique id so callbacks from a superseded
// keyboard are detected as stale.
type Flow interface {
	FlowID() string
	flow()
}

// NewFlowID mints a fresh flow instance id.
func NewFlowID() string {
	return uuid.NewString()
}

// BatchAdd collects torrent links until the user confirms or cancels.
type BatchAdd struct {
	ID       string
	Links    []string
	Endpoint string
}

func (f *BatchAdd) FlowID() string { return f.ID }
func (f *BatchAdd) flow()          {}

// FileSelection is an open file-selection dialog for one torrent.
// Selected holds the pending per-index choices; only an explicit confirm
// commits them to the daemon.
type FileSelection struct {
	ID        string
	Endpoint  string
	TorrentID int64
	Files     []engine.FileInfo
	Selected  map[int]bool
}

func (f *FileSelection) FlowID() string { return f.ID }
func (f *FileSelection) flow()          {}

// PickPurpose says why an endpoint picker was opened.
type PickPurpose int

const (
	// PickSwitchDefault changes the session's selected endpoint.
	PickSwitchDefault PickPurpose = iota
	// PickForAdd routes a pending batch add, then switches the session.
	PickForAdd
)

// EndpointPick is an open endpoint-selection dialog.
type EndpointPick struct {
	ID      string
	Purpose PickPurpose
	// Pending holds the batch links awaiting an endpoint when Purpose is
	// PickForAdd.
	Pending []string
}

func (f *EndpointPick) FlowID() string { return f.ID }
func (f *EndpointPick) flow()          {}
