package bot

import "strings"

// ExtractLinks pulls every link-like token out of a message: magnet URIs
// and http(s) URLs. A message with several links is always a whole batch,
// never partially parsed.
func ExtractLinks(text string) []string {
	var links []string
	for _, tok := range strings.Fields(text) {
		if IsMagnet(tok) || IsTorrentURL(tok) {
			links = append(links, tok)
		}
	}
	return links
}

// IsMagnet reports whether the token is a magnet URI.
func IsMagnet(s string) bool {
	return strings.HasPrefix(s, "magnet:?")
}

// IsTorrentURL reports whether the token is an http(s) URL. The daemon
// fetches the URL itself, so anything it can retrieve a .torrent from
// qualifies.
func IsTorrentURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
