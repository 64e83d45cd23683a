package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Persistence handles the disk I/O for the MemStore. Each record kind is
// written to its own JSON file (record bytes base64-encoded by the JSON
// encoder) so a write to one kind never rewrites the others.
type Persistence struct {
	DataDir string
	mu      sync.Mutex // Protects concurrent writes to the filesystem
}

// NewPersistence initializes a persistence handler, creating the data
// directory if needed.
func NewPersistence(dir string) (*Persistence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Persistence{DataDir: dir}, nil
}

// SaveKind writes a single kind's records to a JSON file atomically: the
// temp-file-then-rename swap means a crash leaves either the old file or the
// new one, never a torn write.
func (p *Persistence) SaveKind(kind string, records map[uint64][]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	filePath := filepath.Join(p.DataDir, fmt.Sprintf("%s.json", kind))
	tempPath := filePath + ".tmp"

	// JSON keys must be strings; encode IDs in decimal.
	out := make(map[string][]byte, len(records))
	for id, rec := range records {
		out[strconv.FormatUint(id, 10)] = rec
	}

	bytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tempPath, bytes, 0644); err != nil {
		return err
	}
	return os.Rename(tempPath, filePath)
}

// LoadAll returns all record data found in the data directory, keyed by kind.
func (p *Persistence) LoadAll() (map[string]map[uint64][]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	allData := make(map[string]map[uint64][]byte)

	files, err := os.ReadDir(p.DataDir)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if filepath.Ext(file.Name()) != ".json" {
			continue
		}
		kind := strings.TrimSuffix(file.Name(), ".json")

		content, err := os.ReadFile(filepath.Join(p.DataDir, file.Name()))
		if err != nil {
			log.Printf("Warning: could not read record file %s: %v", file.Name(), err)
			continue // Skip corrupted/unreadable files
		}

		var raw map[string][]byte
		if err := json.Unmarshal(content, &raw); err != nil {
			log.Printf("Warning: could not unmarshal records from %s: %v", file.Name(), err)
			continue
		}

		records := make(map[uint64][]byte, len(raw))
		for key, rec := range raw {
			id, err := strconv.ParseUint(key, 10, 64)
			if err != nil {
				log.Printf("Warning: skipping record with bad key %q in %s", key, file.Name())
				continue
			}
			records[id] = rec
		}
		allData[kind] = records
	}
	return allData, nil
}
