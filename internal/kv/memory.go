package kv

import "sync"

type Memory struct {
	mu    sync.Mutex
	data  map[string]string
	quota int
}

func NewMemory(quota int) *Memory {
	return &Memory{data: make(map[string]string), quota: quota}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	need := entrySize(key, value)
	for k, v := range m.data {
		if k != key {
			need += entrySize(k, v)
		}
	}
	if err := checkQuota(key, need, m.quota); err != nil {
		return err
	}
	m.data[key] = value
	return nil
}
