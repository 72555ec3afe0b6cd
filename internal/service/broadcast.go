package service

// Broadcaster sends real-time events to connected clients.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastEvent(channel string, eventType string, data any)
}

// NoopBroadcaster is a no-op implementation for testing or when WS is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastEvent(string, string, any) {}

// Event types pushed over the hub.
const (
	EventBattleResolved = "battle_resolved"
	EventWarDeclared    = "war_declared"
	EventWarEnded       = "war_ended"
	EventTradeAccepted  = "trade_accepted"
	EventTreatyChanged  = "treaty_changed"
	EventBountyPlaced   = "bounty_placed"
	EventSpellCast      = "spell_cast"
)
