package relay

import (
	"errors"
	"sync"
)

var ErrNoRelayRooms = errors.New("no relay rooms available")

// HealthRoom is reserved for health probes and is never assigned to a
// chat room.
const HealthRoom = 0

// RoomMapper binds chat rooms to numeric relay rooms. The relay only
// understands a small fixed pool, so mappings must be released when a
// chat room closes.
type RoomMapper interface {
	Acquire(roomID string) (int, error)
	Lookup(roomID string) (int, bool)
	Release(roomID string)
}

// StaticMapper hands out relay rooms from a fixed pool. Acquire is
// idempotent per chat room.
type StaticMapper struct {
	mu       sync.Mutex
	free     []int
	assigned map[string]int
}

func NewStaticMapper(pool []int) *StaticMapper {
	if len(pool) == 0 {
		pool = []int{1, 2, 3}
	}
	free := make([]int, 0, len(pool))
	for _, r := range pool {
		if r == HealthRoom {
			continue
		}
		free = append(free, r)
	}
	return &StaticMapper{
		free:     free,
		assigned: make(map[string]int),
	}
}

func (m *StaticMapper) Acquire(roomID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if relayRoom, ok := m.assigned[roomID]; ok {
		return relayRoom, nil
	}
	if len(m.free) == 0 {
		return 0, ErrNoRelayRooms
	}
	relayRoom := m.free[0]
	m.free = m.free[1:]
	m.assigned[roomID] = relayRoom
	return relayRoom, nil
}

func (m *StaticMapper) Lookup(roomID string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	relayRoom, ok := m.assigned[roomID]
	return relayRoom, ok
}

func (m *StaticMapper) Release(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	relayRoom, ok := m.assigned[roomID]
	if !ok {
		return
	}
	delete(m.assigned, roomID)
	m.free = append(m.free, relayRoom)
}
