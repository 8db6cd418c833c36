package identity

import (
	"encoding/json"
	"os"
	"path/filepath"

	applog "eventcal/internal/log"
)

// Entry is the persisted record for one UID.
type Entry struct {
	Hash     string `json:"hash"`
	Sequence int    `json:"sequence"`
}

// State is the only durable state of the whole program: per-UID content
// hashes and sequence numbers, plus the dedup-key -> UID assignments that
// keep identifiers stable when sources reorder between runs. Entries for
// events that disappeared are retained indefinitely.
type State struct {
	UIDs map[string]Entry  `json:"uids"`
	Keys map[string]string `json:"keys"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		UIDs: make(map[string]Entry),
		Keys: make(map[string]string),
	}
}

// LoadState reads the state file. A missing or corrupt file yields an
// empty state: losing sequence history only causes calendar clients to
// refetch, which is harmless compared to aborting the run.
func LoadState(path string) *State {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			applog.Warn("state file unreadable, starting empty", "path", path, "reason", err)
		}
		return NewState()
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		applog.Warn("state file corrupt, starting empty", "path", path, "reason", err)
		return NewState()
	}
	if st.UIDs == nil {
		st.UIDs = make(map[string]Entry)
	}
	if st.Keys == nil {
		st.Keys = make(map[string]string)
	}
	return &st
}

// Save writes the state atomically: temp file in the target directory,
// fsync, rename.
func (s *State) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".eventcal-state-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
