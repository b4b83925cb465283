package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tuskan/zarrgo/storekey"
)

// Memory is an in-memory store: a map under a single mutex with sorted
// listings, a full Readable/Writable/Listable implementation used in tests
// and as a scratch backend.
type Memory struct {
	mu   sync.RWMutex
	data map[storekey.Key][]byte
}

// NewMemory constructs an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[storekey.Key][]byte)}
}

func (m *Memory) Get(ctx context.Context, key storekey.Key) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) GetPartial(ctx context.Context, key storekey.Key, ranges []storekey.ByteRange) ([][]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		start, end, err := r.Resolve(uint64(len(v)))
		if err != nil {
			return nil, false, err
		}
		buf := make([]byte, end-start)
		copy(buf, v[start:end])
		out[i] = buf
	}
	return out, true, nil
}

func (m *Memory) Size(ctx context.Context, key storekey.Key) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return 0, false, nil
	}
	return uint64(len(v)), true, nil
}

func (m *Memory) Set(ctx context.Context, key storekey.Key, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[key] = cp
	return nil
}

func (m *Memory) SetPartial(ctx context.Context, key storekey.Key, updates []PartialWrite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.data[key]
	for _, u := range updates {
		end := u.Offset + uint64(len(u.Data))
		if uint64(len(v)) < end {
			grown := make([]byte, end)
			copy(grown, v)
			v = grown
		}
		copy(v[u.Offset:end], u.Data)
	}
	m.data[key] = v
	return nil
}

func (m *Memory) Erase(ctx context.Context, key storekey.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) EraseAll(ctx context.Context, prefix storekey.Prefix) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := string(prefix)
	for k := range m.data {
		if strings.HasPrefix(string(k), p) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *Memory) List(ctx context.Context, prefix storekey.Prefix) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := string(prefix)
	seen := make(map[string]struct{})
	for k := range m.data {
		s := string(k)
		if !strings.HasPrefix(s, p) {
			continue
		}
		rest := s[len(p):]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			rest = rest[:i]
		}
		seen[rest] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) ListDir(ctx context.Context, prefix storekey.Prefix) ([]string, []string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := string(prefix)
	keySet := make(map[string]struct{})
	prefixSet := make(map[string]struct{})
	for k := range m.data {
		s := string(k)
		if !strings.HasPrefix(s, p) {
			continue
		}
		rest := s[len(p):]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			prefixSet[rest[:i+1]] = struct{}{}
		} else {
			keySet[rest] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for s := range keySet {
		keys = append(keys, s)
	}
	prefixes := make([]string, 0, len(prefixSet))
	for s := range prefixSet {
		prefixes = append(prefixes, s)
	}
	sort.Strings(keys)
	sort.Strings(prefixes)
	return keys, prefixes, nil
}

func (m *Memory) ListRecursive(ctx context.Context, prefix storekey.Prefix) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := string(prefix)
	var out []string
	for k := range m.data {
		s := string(k)
		if strings.HasPrefix(s, p) {
			out = append(out, s[len(p):])
		}
	}
	sort.Strings(out)
	return out, nil
}
