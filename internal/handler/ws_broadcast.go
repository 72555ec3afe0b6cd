package handler

// BroadcastEvent implements service.Broadcaster using the WebSocket hub.
func (h *Hub) BroadcastEvent(channel string, eventType string, data any) {
	h.BroadcastToChannel(channel, WSEvent{
		Type:    eventType,
		Channel: channel,
		Data:    data,
	})
}
