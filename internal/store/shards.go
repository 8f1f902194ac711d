// Package store reads and writes the canonical record store: one JSON shard
// per city, plus run artifacts.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/badjoke-lab/cryptopaymap/internal/model"
)

// SchemaVersion is the typed envelope identifier written to every shard.
const SchemaVersion = "cryptopaymap/places@1"

// envelope is the on-disk shard format.
type envelope struct {
	Schema string              `json:"schema"`
	Places []model.PlaceRecord `json:"places"`
}

// legacyBucketKeys are the keys older exports hid their arrays under. Only
// this read shim probes them; everything downstream sees the typed envelope.
var legacyBucketKeys = []string{"places", "items", "results", "data", "venues"}

// LoadShard reads one shard file. Legacy shapes (a bare record array, or an
// object with the array under a well-known key) are accepted on read and
// rewritten as the typed envelope on the next save.
func LoadShard(path string) ([]model.PlaceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shard: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	// Legacy: a bare top-level array.
	if trimmed[0] == '[' {
		var places []model.PlaceRecord
		if err := json.Unmarshal(trimmed, &places); err != nil {
			return nil, fmt.Errorf("parse legacy shard %s: %w", filepath.Base(path), err)
		}
		return places, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("parse shard %s: %w", filepath.Base(path), err)
	}
	if env.Schema == SchemaVersion {
		return env.Places, nil
	}

	// Legacy: an untagged object with the array under a bucket key.
	var buckets map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &buckets); err != nil {
		return nil, fmt.Errorf("parse shard %s: %w", filepath.Base(path), err)
	}
	for _, key := range legacyBucketKeys {
		raw, ok := buckets[key]
		if !ok {
			continue
		}
		var places []model.PlaceRecord
		if err := json.Unmarshal(raw, &places); err != nil {
			return nil, fmt.Errorf("parse legacy shard %s key %q: %w", filepath.Base(path), key, err)
		}
		return places, nil
	}
	return nil, fmt.Errorf("shard %s: unrecognized format", filepath.Base(path))
}

// WriteShard replaces a shard atomically: records are id-sorted and
// pretty-printed for stable diffs, written to a temp file in the same
// directory and renamed over the target. Interrupting a batch between files
// can therefore never corrupt a shard.
func WriteShard(path string, places []model.PlaceRecord) error {
	sorted := append([]model.PlaceRecord(nil), places...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	data, err := json.MarshalIndent(envelope{Schema: SchemaVersion, Places: sorted}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal shard: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp shard: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp shard: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp shard: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace shard: %w", err)
	}
	return nil
}

// ListShards returns the shard files in a store directory, sorted by name.
func ListShards(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}
	var shards []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		shards = append(shards, filepath.Join(dir, e.Name()))
	}
	sort.Strings(shards)
	return shards, nil
}
