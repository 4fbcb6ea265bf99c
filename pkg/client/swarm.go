package client

import "sync"

// Swarm manages multiple clients that can access each other's modules.
type Swarm struct {
	mu      sync.RWMutex
	clients []*Client
}

// NewSwarm creates a new swarm.
func NewSwarm() *Swarm {
	return &Swarm{}
}

// NewClient creates a new client within this swarm.
func (s *Swarm) NewClient(username string) *Client {
	c := New(username)
	c.swarm = s
	s.mu.Lock()
	s.clients = append(s.clients, c)
	s.mu.Unlock()
	return c
}

// Clients returns all clients in the swarm.
func (s *Swarm) Clients() []*Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Client, len(s.clients))
	copy(out, s.clients)
	return out
}

// ByName returns the client with the given username, or nil.
func (s *Swarm) ByName(username string) *Client {
	for _, c := range s.Clients() {
		if c.Username == username {
			return c
		}
	}
	return nil
}

// Tick ticks every client in the order they joined.
func (s *Swarm) Tick() {
	for _, c := range s.Clients() {
		c.Tick()
	}
}
