package world

import (
	"bytes"
	"sync"

	pk "github.com/Tnze/go-mc/net/packet"
	"github.com/go-mclib/data/pkg/data/chunks"
	"github.com/go-mclib/protocol/nbt"

	"github.com/go-mclib/chests/pkg/blockpos"
	"github.com/go-mclib/chests/pkg/chest"
	"github.com/go-mclib/chests/pkg/chest/wire"
	"github.com/go-mclib/chests/pkg/client"
)

const ModuleName = "world"

// BlockEntityData holds the last full snapshot of a block entity.
type BlockEntityData struct {
	State int32
	Data  nbt.Compound
}

// Module mirrors the block states the server announced, stored in chunk
// columns the way a vanilla client stores them.
type Module struct {
	client *client.Client

	mu            sync.RWMutex
	Chunks        map[int64]*chunks.ChunkColumn
	blockEntities map[blockpos.Pos]*BlockEntityData

	onChunkLoad   []func(x, z int32)
	onBlockUpdate []func(pos blockpos.Pos, stateID int32)
}

func New() *Module {
	return &Module{
		Chunks:        make(map[int64]*chunks.ChunkColumn),
		blockEntities: make(map[blockpos.Pos]*BlockEntityData),
	}
}

func (m *Module) Name() string { return ModuleName }

func (m *Module) Init(c *client.Client) { m.client = c }

func (m *Module) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Chunks = make(map[int64]*chunks.ChunkColumn)
	m.blockEntities = make(map[blockpos.Pos]*BlockEntityData)
}

// From retrieves the world module from a client.
func From(c *client.Client) *Module {
	mod := c.Module(ModuleName)
	if mod == nil {
		return nil
	}
	return mod.(*Module)
}

// events

func (m *Module) OnChunkLoad(cb func(x, z int32)) { m.onChunkLoad = append(m.onChunkLoad, cb) }
func (m *Module) OnBlockUpdate(cb func(pos blockpos.Pos, stateID int32)) {
	m.onBlockUpdate = append(m.onBlockUpdate, cb)
}

func (m *Module) HandlePacket(p pk.Packet) {
	switch p.ID {
	case wire.IDBlockChange:
		m.handleBlockChange(p)
	case wire.IDBlockEntityData:
		m.handleBlockEntityData(p)
	}
}

func (m *Module) handleBlockChange(p pk.Packet) {
	d, err := wire.ReadBlockChange(p)
	if err != nil {
		m.client.Logger.Println("world: failed to parse block change:", err)
		return
	}
	m.SetBlock(d.Pos, d.State)
}

// handleBlockEntityData keeps full snapshots only; deltas are applied by the
// modules that own the block entity.
func (m *Module) handleBlockEntityData(p pk.Packet) {
	d, err := wire.ReadBlockEntityData(p)
	if err != nil || d.Action != wire.ActionFull {
		return
	}
	tag, _, err := nbt.NewReaderFrom(bytes.NewReader(d.NBT)).ReadTag(false)
	if err != nil {
		m.client.Logger.Printf("world: failed to parse block entity at %v: %v", d.Pos, err)
		return
	}
	c, ok := tag.(nbt.Compound)
	if !ok {
		return
	}

	state := m.GetBlock(d.Pos)
	m.mu.Lock()
	m.blockEntities[d.Pos] = &BlockEntityData{State: state, Data: c}
	m.mu.Unlock()
}

// BlockEntity returns the last full snapshot of the block entity at pos.
func (m *Module) BlockEntity(pos blockpos.Pos) (*BlockEntityData, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	be, ok := m.blockEntities[pos]
	return be, ok
}

// SetBlock stores a block state, creating the chunk column and section on
// first use, and runs the block update callbacks.
func (m *Module) SetBlock(pos blockpos.Pos, stateID int32) {
	cx, cz := chunks.ChunkPos(pos.X, pos.Z)
	idx := chunks.SectionIndex(pos.Y)

	m.mu.Lock()
	column, loaded := m.Chunks[chunkKey(cx, cz)]
	if !loaded {
		column = &chunks.ChunkColumn{X: cx, Z: cz}
		m.Chunks[chunkKey(cx, cz)] = column
	}
	if idx < 0 || idx >= len(column.Sections) {
		m.mu.Unlock()
		m.client.Logger.Printf("world: block %v outside the world height", pos)
		return
	}
	if column.Sections[idx] == nil {
		column.Sections[idx] = chunks.NewEmptySection()
	}
	column.SetBlockState(pos.X, pos.Y, pos.Z, stateID)
	if be, ok := m.blockEntities[pos]; ok && be.State != stateID {
		delete(m.blockEntities, pos)
	}
	m.mu.Unlock()

	if !loaded {
		for _, cb := range m.onChunkLoad {
			cb(cx, cz)
		}
	}
	for _, cb := range m.onBlockUpdate {
		cb(pos, stateID)
	}
}

// GetBlock returns the block state ID at pos, 0 (air) when unknown.
func (m *Module) GetBlock(pos blockpos.Pos) int32 {
	cx, cz := chunks.ChunkPos(pos.X, pos.Z)

	m.mu.RLock()
	column := m.Chunks[chunkKey(cx, cz)]
	m.mu.RUnlock()

	if column == nil {
		return 0
	}
	return column.GetBlockState(pos.X, pos.Y, pos.Z)
}

// ChestType returns the chest type of the block at pos, if it is a chest.
func (m *Module) ChestType(pos blockpos.Pos) (chest.Type, bool) {
	return chest.TypeFromState(m.GetBlock(pos))
}

// IsChunkLoaded checks if a chunk is loaded at the given chunk coordinates.
func (m *Module) IsChunkLoaded(chunkX, chunkZ int32) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.Chunks[chunkKey(chunkX, chunkZ)]
	return ok
}

// GetLoadedChunkCount returns the number of loaded chunks.
func (m *Module) GetLoadedChunkCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Chunks)
}

func chunkKey(x, z int32) int64 {
	return int64(x)<<32 | int64(uint32(z))
}
