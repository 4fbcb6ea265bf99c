package client

import (
	"log"
	"os"

	pk "github.com/Tnze/go-mc/net/packet"
	"go.uber.org/atomic"
)

// DefaultQueueSize is the number of undelivered packets a client buffers
// before it starts dropping them.
const DefaultQueueSize = 256

// Client mirrors server state from the packets delivered to it. Packets are
// queued by Deliver from any goroutine and dispatched to modules by Tick.
type Client struct {
	Username string
	Verbose  bool

	Logger *log.Logger

	incoming chan pk.Packet
	dropped  *atomic.Int64
	ticks    *atomic.Int64

	// modules
	modules       []Module
	modulesByName map[string]Module
	handlers      []Handler

	// private
	swarm *Swarm
}

// New creates a minimal client. Register modules before delivering packets.
func New(username string) *Client {
	return &Client{
		Username:      username,
		Logger:        log.New(os.Stdout, "", log.LstdFlags),
		incoming:      make(chan pk.Packet, DefaultQueueSize),
		dropped:       atomic.NewInt64(0),
		ticks:         atomic.NewInt64(0),
		modulesByName: make(map[string]Module),
	}
}

// Register adds a module to the client. Panics on duplicate name.
func (c *Client) Register(m Module) {
	if _, exists := c.modulesByName[m.Name()]; exists {
		panic("module already registered: " + m.Name())
	}
	c.modules = append(c.modules, m)
	c.modulesByName[m.Name()] = m
	m.Init(c)
}

// Module returns a registered module by name, or nil.
func (c *Client) Module(name string) Module {
	return c.modulesByName[name]
}

// RegisterHandler appends a lightweight packet callback (escape hatch).
func (c *Client) RegisterHandler(h Handler) {
	c.handlers = append(c.handlers, h)
}

// Deliver queues a packet for the next Tick. It never blocks; when the queue
// is full the packet is dropped and false is returned.
func (c *Client) Deliver(p pk.Packet) bool {
	select {
	case c.incoming <- p:
		return true
	default:
		if n := c.dropped.Inc(); c.Verbose || n == 1 {
			c.Logger.Printf("%s: queue full, dropped packet 0x%02x (%d dropped)", c.Username, p.ID, n)
		}
		return false
	}
}

// Dropped returns how many delivered packets were discarded.
func (c *Client) Dropped() int64 { return c.dropped.Load() }

// Ticks returns how many times Tick ran.
func (c *Client) Ticks() int64 { return c.ticks.Load() }

// Tick dispatches every queued packet to the modules and handlers, then
// advances the modules that implement Ticker.
func (c *Client) Tick() {
drain:
	for {
		select {
		case p := <-c.incoming:
			c.dispatch(p)
		default:
			break drain
		}
	}

	for _, m := range c.modules {
		if t, ok := m.(Ticker); ok {
			t.Tick()
		}
	}
	c.ticks.Inc()
}

func (c *Client) dispatch(p pk.Packet) {
	if c.Verbose {
		c.Logger.Printf("%s: <- 0x%02x (%d bytes)", c.Username, p.ID, len(p.Data))
	}
	for _, m := range c.modules {
		m.HandlePacket(p)
	}
	for _, h := range c.handlers {
		h(c, p)
	}
}

// Reset drops queued packets and clears every module.
func (c *Client) Reset() {
drain:
	for {
		select {
		case <-c.incoming:
		default:
			break drain
		}
	}
	for _, m := range c.modules {
		m.Reset()
	}
	c.dropped.Store(0)
}

// Swarm returns the swarm this client belongs to, or nil.
func (c *Client) Swarm() *Swarm { return c.swarm }
