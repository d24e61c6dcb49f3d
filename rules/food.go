package rules

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"

	"github.com/brensch/toroid/game"
)

// spawnApples tops the board up to MinimumApples and rolls AppleSpawnChance for
// one extra apple. Apples only land on free cells without an apple.
//
// With a nil rng the placement is a deterministic function of the state, so
// replays and tests are reproducible.
func spawnApples(state *State, rng *rand.Rand, settings Settings, salt uint64) {
	b := state.Board
	if settings.MinimumApples < 0 {
		settings.MinimumApples = 0
	}
	settings.AppleSpawnChance = max(0, min(100, settings.AppleSpawnChance))

	deficit := max(0, settings.MinimumApples-b.Apples.Len())

	spawnExtra := false
	if settings.AppleSpawnChance > 0 {
		if rng != nil {
			spawnExtra = rng.Intn(100) < settings.AppleSpawnChance
		} else {
			spawnExtra = int(stateHash(state, salt)%100) < settings.AppleSpawnChance
		}
	}

	toSpawn := deficit
	if spawnExtra {
		toSpawn++
	}
	if toSpawn == 0 {
		return
	}

	if rng == nil {
		seed := int64(stateHash(state, salt))
		if seed == 0 {
			seed = 1
		}
		rng = rand.New(rand.NewSource(seed))
	}

	g := b.Grid
	available := make([]int, 0, g.Cells())
	for i := 0; i < g.Cells(); i++ {
		if b.FreeIndex(i) && b.Apples.IndexAt(g.Location(i)) < 0 {
			available = append(available, i)
		}
	}

	for ; toSpawn > 0 && len(available) > 0; toSpawn-- {
		i := rng.Intn(len(available))
		b.Apples.Add(game.Apple{At: g.Location(available[i]), LifeLeft: settings.AppleLife})
		available[i] = available[len(available)-1]
		available = available[:len(available)-1]
	}
}

// stateHash mixes turn, board size, heads and apple count.
func stateHash(state *State, salt uint64) uint64 {
	b := state.Board
	h := fnv.New64a()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}

	put(uint64(uint32(b.Grid.Width)) | uint64(uint32(b.Grid.Height))<<32)
	put(uint64(uint32(state.Turn)))
	put(salt)
	put(uint64(b.Apples.Len()))
	for _, s := range []*game.Snake{b.Self, b.Opponent} {
		head := s.Head()
		put(uint64(uint32(head.X))<<32 | uint64(uint32(head.Y)))
	}
	return h.Sum64()
}
