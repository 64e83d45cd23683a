package store

import "sync"

// MemStore is a thread-safe in-memory record store. When constructed with a
// Persistence it snapshots the mutated kind to disk in the background after
// every write, so the hot path never waits on I/O.
type MemStore struct {
	mu sync.RWMutex
	// Structure: [kind][assetID]record
	data      map[string]map[uint64][]byte
	persister *Persistence
	wg        sync.WaitGroup
}

// NewMemStore initializes a store from previously loaded data (may be nil)
// and an optional persister.
func NewMemStore(initial map[string]map[uint64][]byte, p *Persistence) *MemStore {
	if initial == nil {
		initial = make(map[string]map[uint64][]byte)
	}
	return &MemStore{data: initial, persister: p}
}

// Wait blocks until all background persistence tasks have completed.
func (m *MemStore) Wait() { m.wg.Wait() }

// Close flushes pending background writes.
func (m *MemStore) Close() error {
	m.Wait()
	return nil
}

func (m *MemStore) Get(kind string, id uint64) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.data[kind][id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	// Copy so callers can never mutate stored state in place.
	return append([]byte(nil), rec...), nil
}

func (m *MemStore) Put(kind string, id uint64, data []byte) error {
	m.mu.Lock()
	if m.data[kind] == nil {
		m.data[kind] = make(map[uint64][]byte)
	}
	m.data[kind][id] = append([]byte(nil), data...)
	snapshot := m.copyKind(kind)
	m.mu.Unlock()

	m.persist(kind, snapshot)
	return nil
}

func (m *MemStore) Patch(kind string, id uint64, off int, data []byte) error {
	m.mu.Lock()
	rec, ok := m.data[kind][id]
	if !ok {
		m.mu.Unlock()
		return ErrRecordNotFound
	}
	if off < 0 || off+len(data) > len(rec) {
		m.mu.Unlock()
		return ErrPatchOutOfRange
	}
	copy(rec[off:], data)
	snapshot := m.copyKind(kind)
	m.mu.Unlock()

	m.persist(kind, snapshot)
	return nil
}

func (m *MemStore) Delete(kind string, id uint64) error {
	m.mu.Lock()
	if recs, ok := m.data[kind]; ok {
		delete(recs, id)
	}
	snapshot := m.copyKind(kind)
	m.mu.Unlock()

	m.persist(kind, snapshot)
	return nil
}

func (m *MemStore) List(kind string) ([]uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []uint64
	for id := range m.data[kind] {
		ids = append(ids, id)
	}
	return ids, nil
}

// copyKind deep-copies one kind's records. Must be called with m.mu held.
func (m *MemStore) copyKind(kind string) map[uint64][]byte {
	original, ok := m.data[kind]
	if !ok {
		return nil
	}
	cp := make(map[uint64][]byte, len(original))
	for id, rec := range original {
		cp[id] = append([]byte(nil), rec...)
	}
	return cp
}

func (m *MemStore) persist(kind string, snapshot map[uint64][]byte) {
	if m.persister == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.persister.SaveKind(kind, snapshot)
	}()
}
