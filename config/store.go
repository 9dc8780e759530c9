package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zhubert/cubensis-link/paths"
)

// Store is host-provided configuration storage, partitioned by namespace.
type Store interface {
	Lookup(namespace, key string) (any, bool)
}

// MapStore is an in-memory Store keyed by namespace then key.
type MapStore map[string]map[string]any

// Lookup implements Store.
func (m MapStore) Lookup(namespace, key string) (any, bool) {
	section, ok := m[namespace]
	if !ok {
		return nil, false
	}
	v, ok := section[key]
	return v, ok
}

// Set stores value under namespace.key, creating the section if needed.
func (m MapStore) Set(namespace, key string, value any) {
	if m[namespace] == nil {
		m[namespace] = make(map[string]any)
	}
	m[namespace][key] = value
}

// Layers consults each Store in order and returns the first hit.
type Layers []Store

// Lookup implements Store.
func (l Layers) Lookup(namespace, key string) (any, bool) {
	for _, s := range l {
		if s == nil {
			continue
		}
		if v, ok := s.Lookup(namespace, key); ok {
			return v, true
		}
	}
	return nil, false
}

// FileStore is a Store backed by a yaml document whose top-level keys are
// namespaces:
//
//	cubensis-link:
//	  host: 127.0.0.1
//	  port: 3751
type FileStore struct {
	path     string
	sections MapStore
}

// LoadFile reads a FileStore from path. A missing file yields an empty store.
func LoadFile(path string) (*FileStore, error) {
	fs := &FileStore{path: path, sections: MapStore{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &fs.sections); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if fs.sections == nil {
		fs.sections = MapStore{}
	}
	return fs, nil
}

// LoadDefaultFile reads the FileStore at paths.ConfigFilePath.
func LoadDefaultFile() (*FileStore, error) {
	path, err := paths.ConfigFilePath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// Path returns the file the store was read from.
func (f *FileStore) Path() string {
	return f.path
}

// Lookup implements Store.
func (f *FileStore) Lookup(namespace, key string) (any, bool) {
	return f.sections.Lookup(namespace, key)
}
