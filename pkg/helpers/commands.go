package helpers

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/go-mclib/chests/pkg/blockpos"
	"github.com/go-mclib/chests/pkg/chest"
	"github.com/go-mclib/chests/pkg/client/modules/world"
	"github.com/go-mclib/chests/pkg/direction"
	"github.com/go-mclib/chests/pkg/item"
	"github.com/go-mclib/chests/pkg/server"
)

type command struct {
	verb string
	args []string
}

// usage lists every console command with its arguments.
var usage = map[string]struct {
	min, max int
	text     string
}{
	"help":    {0, 0, "help"},
	"list":    {0, 0, "list"},
	"inspect": {4, 4, "inspect <player> <x> <y> <z>"},
	"join":    {4, 4, "join <player> <x> <y> <z>"},
	"leave":   {1, 1, "leave <player>"},
	"move":    {4, 4, "move <player> <x> <y> <z>"},
	"open":    {4, 4, "open <player> <x> <y> <z>"},
	"close":   {1, 1, "close <player>"},
	"place":   {4, 5, "place <x> <y> <z> <type> [facing]"},
	"break":   {3, 3, "break <x> <y> <z>"},
	"rotate":  {3, 3, "rotate <x> <y> <z>"},
	"put":     {5, 6, "put <x> <y> <z> <slot> <item> [count]"},
	"take":    {4, 5, "take <x> <y> <z> <slot> [count]"},
	"insert":  {4, 5, "insert <x> <y> <z> <item> [count]"},
	"name":    {4, -1, "name <x> <y> <z> <name...>"},
	"save":    {0, 1, "save [path]"},
}

func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, fmt.Errorf("empty command")
	}
	cmd := command{verb: strings.ToLower(fields[0]), args: fields[1:]}
	u, ok := usage[cmd.verb]
	if !ok {
		return command{}, fmt.Errorf("unknown command %q, try help", cmd.verb)
	}
	if len(cmd.args) < u.min || (u.max >= 0 && len(cmd.args) > u.max) {
		return command{}, fmt.Errorf("usage: %s", u.text)
	}
	return cmd, nil
}

// Exec runs one console command against the simulation. It must be called
// on the tick goroutine.
func (s *Sim) Exec(line string) (string, error) {
	cmd, err := parseCommand(line)
	if err != nil {
		return "", err
	}
	a := cmd.args

	switch cmd.verb {
	case "help":
		verbs := make([]string, 0, len(usage))
		for _, u := range usage {
			verbs = append(verbs, u.text)
		}
		sort.Strings(verbs)
		return "commands: " + strings.Join(verbs, "; "), nil

	case "list":
		var b strings.Builder
		for _, r := range s.Rows() {
			fmt.Fprintf(&b, "%s %s facing %s, %d viewing, %s slots\n", r.Pos, r.Name, r.Facing, r.Observers, r.Slots)
		}
		return strings.TrimSuffix(b.String(), "\n"), nil

	case "inspect":
		c := s.Swarm.ByName(a[0])
		if c == nil {
			return "", fmt.Errorf("%s is not connected", a[0])
		}
		pos, err := parsePos(a[1:4])
		if err != nil {
			return "", err
		}
		be, ok := world.From(c).BlockEntity(pos)
		if !ok {
			return "", fmt.Errorf("%s has no snapshot of %v", a[0], pos)
		}
		name := be.Data.GetString("CustomName")
		if name == "" {
			name = "unnamed"
		}
		out := fmt.Sprintf("%s sees %v as %s", a[0], pos, name)
		if table := be.Data.GetString("LootTable"); table != "" {
			out += ", loot " + table + " pending"
		}
		return out, nil

	case "join":
		v, err := parseVec(a[1:4])
		if err != nil {
			return "", err
		}
		if s.Server.PlayerByName(a[0]) != nil {
			return "", fmt.Errorf("%s is already connected", a[0])
		}
		s.Connect(a[0], v)
		return "", nil

	case "leave":
		p, err := s.player(a[0])
		if err != nil {
			return "", err
		}
		s.Server.Leave(p.ID)
		return "", nil

	case "move":
		p, err := s.player(a[0])
		if err != nil {
			return "", err
		}
		v, err := parseVec(a[1:4])
		if err != nil {
			return "", err
		}
		p.SetPos(v)
		return fmt.Sprintf("%s moved to %s", p.Name, a[1:4]), nil

	case "open":
		p, err := s.player(a[0])
		if err != nil {
			return "", err
		}
		pos, err := parsePos(a[1:4])
		if err != nil {
			return "", err
		}
		if err := s.Chests.Open(p.ID, pos); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s opened %v", p.Name, pos), nil

	case "close":
		p, err := s.player(a[0])
		if err != nil {
			return "", err
		}
		if err := s.Chests.Close(p.ID); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s closed its chest", p.Name), nil

	case "place":
		pos, err := parsePos(a[0:3])
		if err != nil {
			return "", err
		}
		t, ok := chest.ParseType(a[3])
		if !ok {
			return "", fmt.Errorf("unknown chest type %q", a[3])
		}
		facing := direction.North
		if len(a) == 5 {
			if facing, ok = direction.Parse(a[4]); !ok {
				return "", fmt.Errorf("unknown facing %q", a[4])
			}
		}
		_, err = s.Chests.Place(pos, t, facing)
		return "", err

	case "break":
		pos, err := parsePos(a[0:3])
		if err != nil {
			return "", err
		}
		drops, err := s.Chests.Break(pos)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("dropped %v", drops), nil

	case "rotate":
		pos, err := parsePos(a[0:3])
		if err != nil {
			return "", err
		}
		return "", s.Chests.Rotate(pos)

	case "put":
		pos, err := parsePos(a[0:3])
		if err != nil {
			return "", err
		}
		slot, err := strconv.Atoi(a[3])
		if err != nil {
			return "", fmt.Errorf("bad slot %q", a[3])
		}
		st, err := parseStack(a[4], a[5:])
		if err != nil {
			return "", err
		}
		return "", s.Chests.SetSlot(pos, slot, st)

	case "take":
		pos, err := parsePos(a[0:3])
		if err != nil {
			return "", err
		}
		slot, err := strconv.Atoi(a[3])
		if err != nil {
			return "", fmt.Errorf("bad slot %q", a[3])
		}
		n := item.MaxStackSize
		if len(a) == 5 {
			if n, err = strconv.Atoi(a[4]); err != nil || n <= 0 {
				return "", fmt.Errorf("bad count %q", a[4])
			}
		}
		got, err := s.Chests.TakeSlot(pos, slot, n)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("took %v", got), nil

	case "insert":
		pos, err := parsePos(a[0:3])
		if err != nil {
			return "", err
		}
		st, err := parseStack(a[3], a[4:])
		if err != nil {
			return "", err
		}
		rest, err := s.Chests.Insert(pos, st)
		if err != nil {
			return "", err
		}
		if !rest.IsEmpty() {
			return fmt.Sprintf("%v did not fit", rest), nil
		}
		return "", nil

	case "name":
		pos, err := parsePos(a[0:3])
		if err != nil {
			return "", err
		}
		e := s.Chests.Chest(pos)
		if e == nil {
			return "", fmt.Errorf("no chest at %v", pos)
		}
		e.SetCustomName(strings.Join(a[3:], " "))
		return "", nil

	case "save":
		path := s.cfg.Save
		if len(a) == 1 {
			path = a[0]
		}
		if path == "" {
			return "", fmt.Errorf("no save path configured")
		}
		if err := s.Chests.SaveFile(path); err != nil {
			return "", err
		}
		return "saved world to " + path, nil
	}
	return "", fmt.Errorf("unhandled command %q", cmd.verb)
}

func (s *Sim) player(name string) (*server.Player, error) {
	p := s.Server.PlayerByName(name)
	if p == nil {
		return nil, fmt.Errorf("no player named %s", name)
	}
	return p, nil
}

func parsePos(args []string) (blockpos.Pos, error) {
	var xyz [3]int
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return blockpos.Pos{}, fmt.Errorf("bad block coordinate %q", a)
		}
		xyz[i] = n
	}
	return blockpos.Pos{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func parseVec(args []string) (mgl64.Vec3, error) {
	var v mgl64.Vec3
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return v, fmt.Errorf("bad coordinate %q", a)
		}
		v[i] = f
	}
	return v, nil
}

func parseStack(name string, count []string) (item.Stack, error) {
	if !strings.Contains(name, ":") {
		name = "minecraft:" + name
	}
	n := 1
	if len(count) == 1 {
		var err error
		if n, err = strconv.Atoi(count[0]); err != nil || n <= 0 {
			return item.Empty, fmt.Errorf("bad count %q", count[0])
		}
	}
	switch id := item.ID(name); {
	case id < 0:
		return item.Empty, fmt.Errorf("unknown item %q", name)
	case id == item.Air:
		return item.Empty, fmt.Errorf("%s cannot be stored", name)
	}
	return item.Of(name, n), nil
}
