package server

import (
	"context"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	pk "github.com/Tnze/go-mc/net/packet"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/go-mclib/chests/pkg/blockpos"
)

// Module is a pluggable piece of world simulation.
type Module interface {
	// Name returns a unique key for this module (e.g. "chests").
	Name() string
	// Init is called once when the module is registered on a server.
	Init(s *Server)
	// Tick advances the module by one game tick.
	Tick()
	// Reset clears module state.
	Reset()
}

// Server is the authoritative tick host. It owns the players and fans
// packets out to those near a position.
type Server struct {
	// TickRate is the wall-clock duration of one tick in Run.
	TickRate time.Duration
	// ViewRadius bounds who receives block changes and block events.
	ViewRadius float64

	Logger *log.Logger

	mu      sync.RWMutex
	players map[uuid.UUID]*Player

	modules       []Module
	modulesByName map[string]Module

	ticks *atomic.Int64
	tasks chan func()

	onJoin  []func(p *Player)
	onLeave []func(p *Player)
	onTick  []func(tick int64)
}

// New creates a server ticking 20 times per second.
func New() *Server {
	return &Server{
		TickRate:      50 * time.Millisecond,
		ViewRadius:    64,
		Logger:        log.New(os.Stdout, "", log.LstdFlags),
		players:       make(map[uuid.UUID]*Player),
		modulesByName: make(map[string]Module),
		ticks:         atomic.NewInt64(0),
		tasks:         make(chan func(), 64),
	}
}

// Register adds a module to the server. Panics on duplicate name.
func (s *Server) Register(m Module) {
	if _, exists := s.modulesByName[m.Name()]; exists {
		panic("module already registered: " + m.Name())
	}
	s.modules = append(s.modules, m)
	s.modulesByName[m.Name()] = m
	m.Init(s)
}

// Module returns a registered module by name, or nil.
func (s *Server) Module(name string) Module {
	return s.modulesByName[name]
}

// events

func (s *Server) OnJoin(cb func(p *Player))  { s.onJoin = append(s.onJoin, cb) }
func (s *Server) OnLeave(cb func(p *Player)) { s.onLeave = append(s.onLeave, cb) }
func (s *Server) OnTick(cb func(tick int64)) { s.onTick = append(s.onTick, cb) }

// Join adds a player standing at pos. Packets for the player go to sink,
// which must not block.
func (s *Server) Join(name string, pos mgl64.Vec3, sink func(pk.Packet)) *Player {
	p := &Player{
		ID:   uuid.New(),
		Name: name,
		sink: sink,
		pos:  pos,
	}
	s.mu.Lock()
	s.players[p.ID] = p
	s.mu.Unlock()

	s.Logger.Printf("%s joined at (%.1f, %.1f, %.1f)", name, pos.X(), pos.Y(), pos.Z())
	for _, cb := range s.onJoin {
		cb(p)
	}
	return p
}

// Leave disconnects a player. Containers it had open are not closed; their
// observer counts are corrected by the next resync.
func (s *Server) Leave(id uuid.UUID) {
	s.mu.Lock()
	p, ok := s.players[id]
	delete(s.players, id)
	s.mu.Unlock()
	if !ok {
		return
	}

	s.Logger.Printf("%s left", p.Name)
	for _, cb := range s.onLeave {
		cb(p)
	}
}

// Player returns the player with the given id, or nil.
func (s *Server) Player(id uuid.UUID) *Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players[id]
}

// PlayerByName returns the first player with the given name, or nil.
func (s *Server) PlayerByName(name string) *Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Players returns all connected players ordered by name.
func (s *Server) Players() []*Player {
	s.mu.RLock()
	out := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PlayersWithin returns the players whose feet are inside box.
func (s *Server) PlayersWithin(box blockpos.AABB) []*Player {
	var out []*Player
	for _, p := range s.Players() {
		if box.Contains(p.Pos()) {
			out = append(out, p)
		}
	}
	return out
}

// SendToAllAround sends pkt to every player within radius of center.
func (s *Server) SendToAllAround(center mgl64.Vec3, radius float64, pkt pk.Packet) {
	for _, p := range s.Players() {
		if p.Pos().Sub(center).Len() <= radius {
			p.Send(pkt)
		}
	}
}

// Do schedules fn to run on the tick goroutine before the next tick.
func (s *Server) Do(fn func()) {
	s.tasks <- fn
}

// Ticks returns the number of completed ticks.
func (s *Server) Ticks() int64 { return s.ticks.Load() }

// Tick runs pending tasks, then advances every module by one tick.
func (s *Server) Tick() {
drain:
	for {
		select {
		case fn := <-s.tasks:
			fn()
		default:
			break drain
		}
	}

	for _, m := range s.modules {
		m.Tick()
	}

	tick := s.ticks.Inc()
	for _, cb := range s.onTick {
		cb(tick)
	}
}

// Run ticks at TickRate until ctx is done or limit ticks have run.
// A limit of zero runs forever.
func (s *Server) Run(ctx context.Context, limit int64) error {
	ticker := time.NewTicker(s.TickRate)
	defer ticker.Stop()

	for limit == 0 || s.Ticks() < limit {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick()
		}
	}
	return nil
}

// Reset clears every module and disconnects all players.
func (s *Server) Reset() {
	for _, m := range s.modules {
		m.Reset()
	}
	s.mu.Lock()
	s.players = make(map[uuid.UUID]*Player)
	s.mu.Unlock()
	s.ticks.Store(0)
}
