package sync

import (
	"context"
	"io"
	"sort"
	"strings"
	gosync "sync"
	"time"
)

type memObject struct {
	data     []byte
	meta     map[string]string
	modTime  time.Time
	versions []string
}

// memStore is an in-memory Store for testing.
type memStore struct {
	mu      gosync.Mutex
	objects map[string]*memObject

	putCalls    []string
	copyCalls   []string
	getCalls    []string
	deleteCalls []string

	putOpts TransferOptions
	failPut map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		objects: make(map[string]*memObject),
		failPut: make(map[string]error),
	}
}

func (m *memStore) set(bucket, key, content string, meta map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = &memObject{data: []byte(content), meta: meta, modTime: time.Now()}
}

func (m *memStore) object(bucket, key string) *memObject {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[bucket+"/"+key]
}

func (m *memStore) List(_ context.Context, bucket, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for full := range m.objects {
		b, key, _ := strings.Cut(full, "/")
		if b == bucket && strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memStore) ListVersions(_ context.Context, bucket, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if obj, ok := m.objects[bucket+"/"+key]; ok {
		return append([]string(nil), obj.versions...), nil
	}
	return nil, nil
}

func (m *memStore) Stat(_ context.Context, bucket, key string) (*ObjectMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, nil
	}
	return &ObjectMeta{Size: int64(len(obj.data)), ModTime: obj.modTime, Metadata: obj.meta}, nil
}

func (m *memStore) Put(_ context.Context, bucket, key string, r io.Reader, meta map[string]string, opts TransferOptions) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failPut[key]; err != nil {
		return err
	}
	m.putCalls = append(m.putCalls, bucket+"/"+key)
	m.putOpts = opts
	m.objects[bucket+"/"+key] = &memObject{data: data, meta: meta, modTime: time.Now()}
	return nil
}

func (m *memStore) Get(_ context.Context, bucket, key string, w io.WriterAt) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls = append(m.getCalls, bucket+"/"+key)
	obj, ok := m.objects[bucket+"/"+key]
	if !ok {
		return 0, ErrNotFound
	}
	n, err := w.WriteAt(obj.data, 0)
	return int64(n), err
}

func (m *memStore) Copy(_ context.Context, src, dst Location, meta map[string]string, _ TransferOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[src.Bucket+"/"+src.Key]
	if !ok {
		return ErrNotFound
	}
	m.copyCalls = append(m.copyCalls, dst.Bucket+"/"+dst.Key)
	m.objects[dst.Bucket+"/"+dst.Key] = &memObject{data: append([]byte(nil), obj.data...), meta: meta, modTime: time.Now()}
	return nil
}

func (m *memStore) Delete(_ context.Context, bucket, key, versionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	full := bucket + "/" + key
	if versionID != "" {
		m.deleteCalls = append(m.deleteCalls, full+"@"+versionID)
		if obj, ok := m.objects[full]; ok {
			kept := obj.versions[:0]
			for _, v := range obj.versions {
				if v != versionID {
					kept = append(kept, v)
				}
			}
			obj.versions = kept
		}
		return nil
	}
	m.deleteCalls = append(m.deleteCalls, full)
	delete(m.objects, full)
	return nil
}
