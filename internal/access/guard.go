// Package access gates every inbound action on the configured whitelist.
package access

// Guard answers whether a Telegram user id may use the bot. Read-only
// after construction, safe for concurrent use.
type Guard struct {
	allowed map[int64]bool
	users   []int64
}

// New builds a Guard from the whitelist loaded at startup.
func New(ids []int64) *Guard {
	g := &Guard{
		allowed: make(map[int64]bool, len(ids)),
		users:   make([]int64, 0, len(ids)),
	}
	for _, id := range ids {
		if g.allowed[id] {
			continue
		}
		g.allowed[id] = true
		g.users = append(g.users, id)
	}
	return g
}

// Allow reports whether the user id is whitelisted.
func (g *Guard) Allow(userID int64) bool {
	return g.allowed[userID]
}

// Users returns the whitelisted ids in configuration order, for
// notification fan-out.
func (g *Guard) Users() []int64 {
	out := make([]int64, len(g.users))
	copy(out, g.users)
	return out
}
