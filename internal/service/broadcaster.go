package service

// Broadcaster fans events out to channel subscribers (avoids import cycle
// with the ws and cache packages)
type Broadcaster interface {
	Broadcast(channel string, msgType string, payload interface{})
}

// NopBroadcaster drops every event
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(string, string, interface{}) {}
