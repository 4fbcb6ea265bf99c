package chests

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"

	"github.com/go-mclib/chests/pkg/blockpos"
	"github.com/go-mclib/chests/pkg/chest"
)

// DataVersion tags the save layout.
const DataVersion = 1

type savedChest struct {
	X      int32        `nbt:"x"`
	Y      int32        `nbt:"y"`
	Z      int32        `nbt:"z"`
	Type   string       `nbt:"Type"`
	Entity chest.Record `nbt:"Entity"`
}

type saveFile struct {
	DataVersion int32        `nbt:"DataVersion"`
	Chests      []savedChest `nbt:"Chests"`
}

// Save writes every chest as gzip-compressed NBT and marks them saved.
func (m *Module) Save(w io.Writer) error {
	es := m.entities()
	f := saveFile{DataVersion: DataVersion, Chests: make([]savedChest, 0, len(es))}
	for _, e := range es {
		pos := e.Pos()
		f.Chests = append(f.Chests, savedChest{
			X:      int32(pos.X),
			Y:      int32(pos.Y),
			Z:      int32(pos.Z),
			Type:   e.Type().String(),
			Entity: e.Record(),
		})
	}

	data, err := nbt.Marshal(f)
	if err != nil {
		return fmt.Errorf("chests: encode save: %w", err)
	}
	zw := gzip.NewWriter(w)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("chests: write save: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("chests: write save: %w", err)
	}

	for _, e := range es {
		e.MarkSaved()
	}
	return nil
}

// Load replaces every chest with the ones read from r and resends the world
// to connected players. Entries with an unknown type or a duplicate position
// are skipped.
func (m *Module) Load(r io.Reader) error {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("chests: open save: %w", err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("chests: read save: %w", err)
	}
	var f saveFile
	if err := nbt.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("chests: decode save: %w", err)
	}
	if f.DataVersion > DataVersion {
		return fmt.Errorf("chests: save data version %d is newer than %d", f.DataVersion, DataVersion)
	}

	m.Reset()
	for _, c := range f.Chests {
		pos := blockpos.Pos{X: int(c.X), Y: int(c.Y), Z: int(c.Z)}
		t, ok := chest.ParseType(c.Type)
		if !ok {
			m.server.Logger.Printf("chests: skipping chest at %v with unknown type %q", pos, c.Type)
			continue
		}
		if _, dup := m.BlockType(pos); dup {
			m.server.Logger.Printf("chests: skipping duplicate chest at %v", pos)
			continue
		}

		m.mu.Lock()
		m.blocks[pos] = t
		m.mu.Unlock()
		e := m.newEntity(pos)
		e.Load(c.Entity)
		m.mu.Lock()
		m.chests[pos] = e
		m.mu.Unlock()
	}

	for _, p := range m.server.Players() {
		m.Track(p)
	}
	m.refreshViews()
	m.server.Logger.Printf("chests: loaded %d chests", len(m.entities()))
	return nil
}

// Dirty reports whether any chest changed since the last save.
func (m *Module) Dirty() bool {
	for _, e := range m.entities() {
		if e.SaveDirty() {
			return true
		}
	}
	return false
}

// SaveFile saves to path, replacing it atomically.
func (m *Module) SaveFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("chests: save %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := m.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("chests: save %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("chests: save %s: %w", path, err)
	}
	return nil
}

// LoadFile loads the save at path.
func (m *Module) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("chests: load %s: %w", path, err)
	}
	defer f.Close()
	return m.Load(f)
}
