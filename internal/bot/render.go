package bot

import (
	"fmt"
	"strings"

	"github.com/guiyumin/transmote/internal/engine"
)

// Fixed user-facing texts.
const (
	msgUnauthorized   = "You are not allowed to use this bot."
	msgFlowCancelled  = "Previous operation cancelled."
	msgMenuExpired    = "This menu has expired."
	msgNoEndpoint     = "Endpoint no longer available."
	msgTryAgain       = "try again later"
	msgNothingAdded   = "Nothing to add. Send magnet links, .torrent URLs, or upload a .torrent file."
	msgBatchCancelled = "Batch cancelled."

	msgUsage = `Commands:
/list — show torrents
/add — collect links for a batch add
/endpoints — switch the active endpoint
/free — free disk space on the active endpoint
/cancel — cancel the current operation
/help — this message

You can also just send magnet links, .torrent URLs, or a .torrent file.`
)

func statusEmoji(s engine.Status) string {
	switch s {
	case engine.StatusDownloading:
		return "⏬"
	case engine.StatusSeeding, engine.StatusFinished:
		return "✅"
	case engine.StatusStopped:
		return "⏹"
	case engine.StatusVerifying:
		return "🔁"
	case engine.StatusError:
		return "❗"
	default:
		return "❓"
	}
}

// progressBar renders a 10-cell bar for a [0,1] fraction.
func progressBar(fraction float64) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * 10)
	return strings.Repeat("▪", filled) + strings.Repeat("▫", 10-filled)
}

func formatSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func formatRate(bps int64) string {
	if bps <= 0 {
		return "0 B/s"
	}
	return formatSize(bps) + "/s"
}

// renderList formats one page of torrent summaries plus the numbered
// selection keyboard.
func renderList(endpoint string, torrents []engine.TorrentSummary, offset int, multiEndpoint bool) (string, Keyboard) {
	if len(torrents) == 0 {
		text := "No torrents."
		if multiEndpoint {
			text = fmt.Sprintf("No torrents on %s.", endpoint)
		}
		return text, Keyboard{{{Text: "🔄 Refresh", Data: fmt.Sprintf("list:%d", 0)}}}
	}

	if offset < 0 || offset >= len(torrents) {
		offset = 0
	}
	end := offset + pageSize
	if end > len(torrents) {
		end = len(torrents)
	}
	page := torrents[offset:end]

	var sb strings.Builder
	if multiEndpoint {
		fmt.Fprintf(&sb, "Torrents on %s:\n\n", endpoint)
	}
	for i, t := range page {
		fmt.Fprintf(&sb, "%d. %s %s\n   %s %.0f%%  ↓%s ↑%s\n",
			offset+i+1, statusEmoji(t.Status), t.Name,
			progressBar(t.Progress), t.Progress*100,
			formatRate(t.DownloadRate), formatRate(t.UploadRate))
	}
	fmt.Fprintf(&sb, "\n%d–%d of %d", offset+1, end, len(torrents))

	var kb Keyboard
	var row []Button
	for i, t := range page {
		row = append(row, Button{
			Text: fmt.Sprintf("%d", offset+i+1),
			Data: fmt.Sprintf("detail:%d", t.ID),
		})
		if len(row) == 5 {
			kb = append(kb, row)
			row = nil
		}
	}
	if len(row) > 0 {
		kb = append(kb, row)
	}

	var nav []Button
	if offset > 0 {
		prev := offset - pageSize
		if prev < 0 {
			prev = 0
		}
		nav = append(nav, Button{Text: "⬅️ Prev", Data: fmt.Sprintf("list:%d", prev)})
	}
	nav = append(nav, Button{Text: "🔄 Refresh", Data: fmt.Sprintf("list:%d", offset)})
	if end < len(torrents) {
		nav = append(nav, Button{Text: "Next ➡️", Data: fmt.Sprintf("list:%d", end)})
	}
	kb = append(kb, nav)

	return sb.String(), kb
}

// renderDetail formats one torrent with its action keyboard.
func renderDetail(t engine.TorrentSummary) (string, Keyboard) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n\n", statusEmoji(t.Status), t.Name)
	fmt.Fprintf(&sb, "Status: %s\n", t.Status)
	fmt.Fprintf(&sb, "Progress: %s %.1f%%\n", progressBar(t.Progress), t.Progress*100)
	fmt.Fprintf(&sb, "Size: %s\n", formatSize(t.Size))
	fmt.Fprintf(&sb, "Rates: ↓%s ↑%s", formatRate(t.DownloadRate), formatRate(t.UploadRate))

	kb := Keyboard{
		{
			{Text: "▶️ Start", Data: fmt.Sprintf("t:%d:start", t.ID)},
			{Text: "⏸ Stop", Data: fmt.Sprintf("t:%d:stop", t.ID)},
			{Text: "🔁 Verify", Data: fmt.Sprintf("t:%d:verify", t.ID)},
		},
		{
			{Text: "📂 Files", Data: fmt.Sprintf("t:%d:files", t.ID)},
			{Text: "🗑 Remove", Data: fmt.Sprintf("t:%d:remove", t.ID)},
			{Text: "⬅️ Back", Data: "list:0"},
		},
	}
	return sb.String(), kb
}

// renderFileSelection formats the file-selection dialog for a flow.
func renderFileSelection(f *fileSelectionView) (string, Keyboard) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Select files to download (%d/%d selected):",
		f.selectedCount, len(f.files))

	var kb Keyboard
	for _, file := range f.files {
		mark := "☐"
		if f.selected[file.Index] {
			mark = "☑"
		}
		kb = append(kb, []Button{{
			Text: fmt.Sprintf("%s %s (%s)", mark, file.Name, formatSize(file.Size)),
			Data: fmt.Sprintf("f:%s:%d", f.flowID, file.Index),
		}})
	}
	kb = append(kb, []Button{
		{Text: "✅ Confirm", Data: fmt.Sprintf("f:%s:ok", f.flowID)},
		{Text: "✖️ Cancel", Data: fmt.Sprintf("f:%s:cancel", f.flowID)},
	})
	return sb.String(), kb
}

type fileSelectionView struct {
	flowID        string
	files         []engine.FileInfo
	selected      map[int]bool
	selectedCount int
}

// renderBatch formats the collected-links summary with confirm/cancel.
func renderBatch(flowID string, links []string) (string, Keyboard) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Collected %d link(s):\n", len(links))
	for i, l := range links {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, truncate(l, 60))
	}
	sb.WriteString("\nSend more links to add them, or confirm.")

	kb := Keyboard{{
		{Text: "✅ Confirm", Data: fmt.Sprintf("batch:%s:ok", flowID)},
		{Text: "✖️ Cancel", Data: fmt.Sprintf("batch:%s:cancel", flowID)},
	}}
	return sb.String(), kb
}

// renderEndpointPick formats the endpoint picker keyboard.
func renderEndpointPick(flowID string, names []string, current string, purpose string) (string, Keyboard) {
	var kb Keyboard
	for _, name := range names {
		label := name
		if name == current {
			label = "• " + name
		}
		kb = append(kb, []Button{{Text: label, Data: fmt.Sprintf("pick:%s:%s", flowID, name)}})
	}
	return purpose, kb
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
