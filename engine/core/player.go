package core

// Player represents a game player. Local players are driven by the
// directive layer; non-local players act through per-unit brains.
type Player struct {
	ID       int
	Name     string
	TeamID   int
	IsLocal  bool
	Credits  int // resource ledger
	Defeated bool

	standingOrders map[UnitID]string
}

func NewPlayer(id int, name string, isLocal bool) *Player {
	return &Player{
		ID:      id,
		Name:    name,
		TeamID:  id,
		IsLocal: isLocal,
	}
}

// AddCredits deposits into the resource ledger, returning the new total
func (p *Player) AddCredits(n int) int {
	p.Credits += n
	return p.Credits
}

// Spend deducts cost if affordable, reporting whether it was
func (p *Player) Spend(cost int) bool {
	if p.Credits < cost {
		return false
	}
	p.Credits -= cost
	return true
}

// SetStandingOrder persists a natural-language instruction for a unit. It
// stays until replaced or the unit dies.
func (p *Player) SetStandingOrder(id UnitID, order string) {
	if p.standingOrders == nil {
		p.standingOrders = make(map[UnitID]string)
	}
	p.standingOrders[id] = order
}

// StandingOrder returns the unit's standing order, "" if none
func (p *Player) StandingOrder(id UnitID) string {
	return p.standingOrders[id]
}

// ClearStandingOrder removes a unit's standing order
func (p *Player) ClearStandingOrder(id UnitID) {
	delete(p.standingOrders, id)
}

// AreAllies checks if two players are on the same team
func AreAllies(a, b *Player) bool {
	if a == nil || b == nil {
		return false
	}
	return a.TeamID == b.TeamID
}

// PlayerSnapshot is the JSON view of a player
type PlayerSnapshot struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	IsLocal  bool   `json:"is_local"`
	Credits  int    `json:"credits"`
	Defeated bool   `json:"defeated,omitempty"`
}

// Snapshot returns the player's observer view
func (p *Player) Snapshot() PlayerSnapshot {
	return PlayerSnapshot{
		ID:       p.ID,
		Name:     p.Name,
		IsLocal:  p.IsLocal,
		Credits:  p.Credits,
		Defeated: p.Defeated,
	}
}
