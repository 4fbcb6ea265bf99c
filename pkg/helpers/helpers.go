package helpers

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	pk "github.com/Tnze/go-mc/net/packet"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/atomic"

	"github.com/go-mclib/chests/pkg/blockpos"
	"github.com/go-mclib/chests/pkg/chest"
	"github.com/go-mclib/chests/pkg/client"
	clientchests "github.com/go-mclib/chests/pkg/client/modules/chests"
	"github.com/go-mclib/chests/pkg/client/modules/world"
	"github.com/go-mclib/chests/pkg/config"
	"github.com/go-mclib/chests/pkg/direction"
	"github.com/go-mclib/chests/pkg/item"
	"github.com/go-mclib/chests/pkg/server"
	"github.com/go-mclib/chests/pkg/server/modules/chests"
	"github.com/go-mclib/chests/pkg/tui"
)

// Flags holds common CLI flags for the simulator.
type Flags struct {
	Config      string
	Ticks       int64
	TPS         int
	Save        string
	Load        string
	Interactive bool
	Verbose     bool
	MaxLogLines int
}

// RegisterFlags registers the standard CLI flags on the default flag set.
func RegisterFlags(f *Flags) {
	flag.StringVar(&f.Config, "config", "", "scenario file (YAML)")
	flag.Int64Var(&f.Ticks, "ticks", -1, "stop after this many ticks (0 = run until interrupted, -1 = from scenario)")
	flag.IntVar(&f.TPS, "tps", 0, "ticks per second (0 = from scenario)")
	flag.StringVar(&f.Save, "save", "", "save the world here on exit")
	flag.StringVar(&f.Load, "load", "", "load a saved world before starting")
	flag.BoolVar(&f.Interactive, "i", false, "enable interactive mode with a chest table and command input")
	flag.BoolVar(&f.Verbose, "v", false, "verbose logging")
	flag.IntVar(&f.MaxLogLines, "log-lines", 500, "max log lines kept in interactive mode (0 = unlimited)")
}

// Apply overrides scenario settings with the flags that were set.
func (f Flags) Apply(cfg *config.Config) {
	if f.Ticks >= 0 {
		cfg.Ticks = f.Ticks
	}
	if f.TPS > 0 {
		cfg.TickRate = time.Second / time.Duration(f.TPS)
	}
	if f.Save != "" {
		cfg.Save = f.Save
	}
	if f.Load != "" {
		cfg.Load = f.Load
	}
}

// Sim is a server with one mirroring client per connected player.
type Sim struct {
	Server *server.Server
	Chests *chests.Module
	Swarm  *client.Swarm

	Verbose     bool
	MaxLogLines int

	cfg     config.Config
	actions map[int64][]string
	running *atomic.Bool
}

// NewSim builds the world described by cfg: chests, loot tables, players
// and scripted actions.
func NewSim(cfg config.Config) (*Sim, error) {
	s := server.New()
	s.TickRate = cfg.TickRate

	m := chests.New()
	if len(cfg.Loot) > 0 {
		tables := make(chests.LootTables, len(cfg.Loot))
		for name, entries := range cfg.Loot {
			for _, e := range entries {
				tables[name] = append(tables[name], chests.LootEntry{Item: e.Item, Min: e.Min, Max: e.Max})
			}
		}
		m.Loot = tables
	}
	s.Register(m)

	sim := &Sim{
		Server:  s,
		Chests:  m,
		Swarm:   client.NewSwarm(),
		cfg:     cfg,
		actions: make(map[int64][]string),
		running: atomic.NewBool(false),
	}

	if cfg.Load != "" {
		if err := m.LoadFile(cfg.Load); err != nil {
			return nil, err
		}
	}
	for _, c := range cfg.Chests {
		if err := sim.placeConfigured(c); err != nil {
			return nil, err
		}
	}
	for _, a := range cfg.Actions {
		if _, err := parseCommand(a.Run); err != nil {
			return nil, fmt.Errorf("action at tick %d: %w", a.At, err)
		}
		sim.actions[a.At] = append(sim.actions[a.At], a.Run)
	}

	s.OnTick(sim.onTick)
	for _, p := range cfg.Players {
		_, sp := sim.Connect(p.Name, mgl64.Vec3{p.Pos[0], p.Pos[1], p.Pos[2]})
		sp.SetSpectator(p.Spectator)
	}
	return sim, nil
}

func (s *Sim) placeConfigured(c config.Chest) error {
	t, ok := chest.ParseType(c.Type)
	if !ok {
		return fmt.Errorf("unknown chest type %q", c.Type)
	}
	facing := direction.North
	if c.Facing != "" {
		facing, _ = direction.Parse(c.Facing)
	}
	pos := blockpos.Pos{X: c.Pos[0], Y: c.Pos[1], Z: c.Pos[2]}
	if s.Chests.Chest(pos) != nil {
		s.Server.Logger.Printf("chests: %v already loaded, keeping the saved chest", pos)
		return nil
	}

	e, err := s.Chests.Place(pos, t, facing)
	if err != nil {
		return err
	}
	if c.Name != "" {
		e.SetCustomName(c.Name)
	}
	for _, it := range c.Items {
		if err := s.Chests.SetSlot(pos, it.Slot, item.Of(it.Item, it.Count)); err != nil {
			return err
		}
	}
	if c.LootTable != "" {
		e.SetLootTable(c.LootTable, c.LootSeed)
	}
	return nil
}

// Connect joins a player to the server and attaches a mirroring client to
// its packet stream. Call it from the tick goroutine once the server runs.
func (s *Sim) Connect(name string, pos mgl64.Vec3) (*client.Client, *server.Player) {
	c := s.Swarm.NewClient(name)
	c.Verbose = s.Verbose
	c.Logger = s.Server.Logger
	c.Register(world.New())
	c.Register(clientchests.New())
	p := s.Server.Join(name, pos, func(p pk.Packet) { c.Deliver(p) })
	return c, p
}

func (s *Sim) onTick(tick int64) {
	s.Swarm.Tick()
	for _, line := range s.actions[tick] {
		out, err := s.Exec(line)
		if err != nil {
			s.Server.Logger.Printf("tick %d: %s: %v", tick, line, err)
			continue
		}
		if out != "" {
			s.Server.Logger.Printf("tick %d: %s", tick, out)
		}
	}
}

// SetLogger points the server and every client at l.
func (s *Sim) SetLogger(l *log.Logger) {
	s.Server.Logger = l
	for _, c := range s.Swarm.Clients() {
		c.Logger = l
	}
}

// Run ticks the simulation until the scenario's tick limit or ctx ends it,
// then saves if a save path is configured. In interactive mode a TUI shows
// the chests and accepts commands; quitting it stops the simulation.
func (s *Sim) Run(ctx context.Context, interactive bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.running.Store(true)
	defer s.running.Store(false)

	if !interactive {
		err := s.Server.Run(ctx, s.cfg.Ticks)
		return errors.Join(ignoreCanceled(err), s.save())
	}

	program, writer := tui.Start(s)
	s.SetLogger(log.New(writer, "", log.LstdFlags))
	defer s.SetLogger(log.New(os.Stdout, "", log.LstdFlags))

	tuiDone := make(chan error, 1)
	go func() {
		_, err := program.Run()
		tuiDone <- err
	}()

	simDone := make(chan error, 1)
	go func() {
		simDone <- s.Server.Run(ctx, s.cfg.Ticks)
	}()
	tui.EnableInput(program)

	var err error
	select {
	case err = <-tuiDone:
		cancel()
		<-simDone
	case err = <-simDone:
		s.running.Store(false)
		s.Server.Logger.Println("simulation finished, press Esc to quit")
		tuiErr := <-tuiDone
		err = errors.Join(ignoreCanceled(err), tuiErr)
	}
	return errors.Join(ignoreCanceled(err), s.save())
}

func (s *Sim) save() error {
	if s.cfg.Save == "" {
		return nil
	}
	if err := s.Chests.SaveFile(s.cfg.Save); err != nil {
		return err
	}
	s.Server.Logger.Printf("saved world to %s", s.cfg.Save)
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// tui.Host

func (s *Sim) Title() string {
	return fmt.Sprintf("Chest simulator - %d players", len(s.Server.Players()))
}

func (s *Sim) Rows() []tui.Row {
	views := s.Chests.Views()
	rows := make([]tui.Row, 0, len(views))
	for _, v := range views {
		var top []string
		for _, st := range v.Top {
			if !st.IsEmpty() {
				top = append(top, fmt.Sprintf("%d %s", st.Count, strings.TrimPrefix(st.Name(), "minecraft:")))
			}
		}
		rows = append(rows, tui.Row{
			Pos:       v.Pos.String(),
			Name:      v.Name,
			Facing:    v.Facing.String(),
			Observers: v.Observers,
			Lid:       v.LidState.String(),
			Slots:     fmt.Sprintf("%d/%d", v.Used, v.Capacity),
			Top:       strings.Join(top, ", "),
		})
	}
	return rows
}

// Submit runs a console command on the tick goroutine and logs the result.
func (s *Sim) Submit(line string) {
	if !s.running.Load() {
		s.Server.Logger.Printf("%s: simulation is not running", line)
		return
	}
	s.Server.Do(func() {
		out, err := s.Exec(line)
		if err != nil {
			s.Server.Logger.Printf("%s: %v", line, err)
			return
		}
		if out != "" {
			s.Server.Logger.Println(out)
		}
	})
}

func (s *Sim) MaxLines() int { return s.MaxLogLines }
