package client

import pk "github.com/Tnze/go-mc/net/packet"

// Module is a pluggable game-state component.
type Module interface {
	// Name returns a unique key for this module (e.g. "world", "chests").
	Name() string
	// Init is called once when the module is registered on a client.
	// Store the *Client reference for later use.
	Init(c *Client)
	// HandlePacket is called for every packet delivered to the client.
	HandlePacket(p pk.Packet)
	// Reset is called on reconnect to clear module state.
	Reset()
}

// Ticker is optionally implemented by modules that advance local state once
// per client tick, after the tick's packets were handled.
type Ticker interface {
	Tick()
}

// Handler is a lightweight packet callback for one-off matching.
type Handler func(c *Client, p pk.Packet)
