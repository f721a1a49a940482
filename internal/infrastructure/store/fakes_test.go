// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// mockKeyValueEntry implements jetstream.KeyValueEntry for testing
type mockKeyValueEntry struct {
	key      string
	value    []byte
	revision uint64
}

func (m *mockKeyValueEntry) Key() string                     { return m.key }
func (m *mockKeyValueEntry) Value() []byte                   { return m.value }
func (m *mockKeyValueEntry) Revision() uint64                { return m.revision }
func (m *mockKeyValueEntry) Created() time.Time              { return time.Time{} }
func (m *mockKeyValueEntry) Delta() uint64                   { return 0 }
func (m *mockKeyValueEntry) Operation() jetstream.KeyValueOp { return jetstream.KeyValuePut }
func (m *mockKeyValueEntry) Bucket() string                  { return "test-bucket" }

// mockKeyLister implements jetstream.KeyLister for testing
type mockKeyLister struct {
	keys []string
}

func (m *mockKeyLister) Keys() <-chan string {
	ch := make(chan string, len(m.keys))
	for _, key := range m.keys {
		ch <- key
	}
	close(ch)
	return ch
}

func (m *mockKeyLister) Stop() error { return nil }

// mockNatsKeyValue implements INatsKeyValue for testing. Revisions are
// bucket-wide sequence numbers like a real JetStream stream.
type mockNatsKeyValue struct {
	mu          sync.Mutex
	data        map[string][]byte
	revisions   map[string]uint64
	seq         uint64
	putError    error
	getError    error
	listError   error
	deleteError error
	updateError error
	// vanished keys are listed but report not found on Get, like a key
	// deleted between listing and fetching.
	vanished map[string]bool
	// beforeUpdate runs once before the next Update, simulating a concurrent writer.
	beforeUpdate func(m *mockNatsKeyValue, key string)
}

func newMockNatsKeyValue() *mockNatsKeyValue {
	return &mockNatsKeyValue{
		data:      make(map[string][]byte),
		revisions: make(map[string]uint64),
	}
}

func (m *mockNatsKeyValue) set(key string, data []byte) uint64 {
	m.seq++
	m.data[key] = data
	m.revisions[key] = m.seq
	return m.seq
}

func (m *mockNatsKeyValue) ListKeys(_ context.Context, _ ...jetstream.WatchOpt) (jetstream.KeyLister, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listError != nil {
		return nil, m.listError
	}
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return &mockKeyLister{keys: keys}, nil
}

func (m *mockNatsKeyValue) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	value, exists := m.data[key]
	if !exists || m.vanished[key] {
		return nil, jetstream.ErrKeyNotFound
	}
	return &mockKeyValueEntry{key: key, value: value, revision: m.revisions[key]}, nil
}

func (m *mockNatsKeyValue) Put(_ context.Context, key string, data []byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putError != nil {
		return 0, m.putError
	}
	return m.set(key, data), nil
}

func (m *mockNatsKeyValue) Create(_ context.Context, key string, data []byte, _ ...jetstream.KVCreateOpt) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putError != nil {
		return 0, m.putError
	}
	if _, exists := m.data[key]; exists {
		return 0, jetstream.ErrKeyExists
	}
	return m.set(key, data), nil
}

func (m *mockNatsKeyValue) Update(_ context.Context, key string, data []byte, expectedRevision uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hook := m.beforeUpdate; hook != nil {
		m.beforeUpdate = nil
		hook(m, key)
	}
	if m.updateError != nil {
		return 0, m.updateError
	}
	currentRevision, exists := m.revisions[key]
	if !exists {
		return 0, jetstream.ErrKeyNotFound
	}
	if currentRevision != expectedRevision {
		return 0, errors.New("nats: wrong last sequence: 7")
	}
	return m.set(key, data), nil
}

func (m *mockNatsKeyValue) Delete(_ context.Context, key string, _ ...jetstream.KVDeleteOpt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteError != nil {
		return m.deleteError
	}
	if _, exists := m.data[key]; !exists {
		return jetstream.ErrKeyNotFound
	}
	delete(m.data, key)
	delete(m.revisions, key)
	return nil
}

// mockObjectResult implements jetstream.ObjectResult for testing
type mockObjectResult struct {
	*bytes.Reader
	info *jetstream.ObjectInfo
}

func (r *mockObjectResult) Close() error                          { return nil }
func (r *mockObjectResult) Info() (*jetstream.ObjectInfo, error) { return r.info, nil }
func (r *mockObjectResult) Error() error                          { return nil }

// mockObjectStore implements INatsObjectStore for testing
type mockObjectStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	infos    map[string]*jetstream.ObjectInfo
	puts     int
	putError error
	getError error
}

func newMockObjectStore() *mockObjectStore {
	return &mockObjectStore{
		objects: make(map[string][]byte),
		infos:   make(map[string]*jetstream.ObjectInfo),
	}
}

func (s *mockObjectStore) Put(_ context.Context, meta jetstream.ObjectMeta, reader io.Reader) (*jetstream.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putError != nil {
		return nil, s.putError
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	info := &jetstream.ObjectInfo{ObjectMeta: meta, Bucket: "test-objects", Size: uint64(len(data))}
	s.objects[meta.Name] = data
	s.infos[meta.Name] = info
	s.puts++
	return info, nil
}

func (s *mockObjectStore) Get(_ context.Context, name string, _ ...jetstream.GetObjectOpt) (jetstream.ObjectResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getError != nil {
		return nil, s.getError
	}
	data, ok := s.objects[name]
	if !ok {
		return nil, jetstream.ErrObjectNotFound
	}
	return &mockObjectResult{Reader: bytes.NewReader(data), info: s.infos[name]}, nil
}

func (s *mockObjectStore) GetInfo(_ context.Context, name string, _ ...jetstream.GetObjectInfoOpt) (*jetstream.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.infos[name]
	if !ok {
		return nil, jetstream.ErrObjectNotFound
	}
	return info, nil
}

func (s *mockObjectStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[name]; !ok {
		return jetstream.ErrObjectNotFound
	}
	delete(s.objects, name)
	delete(s.infos, name)
	return nil
}
