package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sweeney/power-sensor/internal/logic"
)

// FileVersion is the current version of the state file format.
const FileVersion = 1

const stateFileName = "state.json"

// fields is the value stored under Namespace. The whole file looks like:
//
//	{"version":1,"power":{"state":true,"lastTime":1767225600},"saved_at":"..."}
type fields struct {
	State    *bool  `json:"state"`
	LastTime *int64 `json:"lastTime"`
}

// FileStore implements Store using a JSON file in a directory.
type FileStore struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// NewFileStore creates a FileStore that keeps its file in dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

// Path returns the full path to the state file.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, stateFileName)
}

// Load reads the state from disk.
// Returns found=false and a nil error if no state file exists.
// Each missing key falls back to its default on its own: a missing state
// means powered, and a missing lastTime leaves LastTransition zero for the
// caller to fill in.
func (s *FileStore) Load(ctx context.Context) (logic.OutageState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return logic.OutageState{}, false, nil
		}
		return logic.OutageState{}, false, fmt.Errorf("read state: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return logic.OutageState{}, false, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	raw, ok := doc[Namespace]
	if !ok {
		return logic.OutageState{}, false, nil
	}

	var f fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return logic.OutageState{}, false, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if f.State == nil && f.LastTime == nil {
		return logic.OutageState{}, false, nil
	}

	var state logic.OutageState
	if f.State != nil {
		state.Unpowered = *f.State
	}
	if f.LastTime != nil {
		state.LastTransition = time.Unix(*f.LastTime, 0)
	}
	return state, true, nil
}

// Save persists the state atomically.
// The data is written to a temp file, synced, then renamed over the old file.
func (s *FileStore) Save(ctx context.Context, state logic.OutageState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	unpowered := state.Unpowered
	lastTime := state.LastTransition.Unix()
	inner, err := json.Marshal(fields{State: &unpowered, LastTime: &lastTime})
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	doc := map[string]any{
		"version":  FileVersion,
		Namespace:  json.RawMessage(inner),
		"saved_at": s.now().UTC(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	path := s.Path()
	tmp := path + ".tmp"
	if err := writeSynced(tmp, data); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	syncDir(s.dir)
	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// syncDir flushes the directory entry after a rename. Not every filesystem
// supports it, so errors are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
