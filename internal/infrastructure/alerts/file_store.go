package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kredexa/lending-engine/internal/domain/port"
)

// FileStore implements port.AlertStore on a directory of JSON marker files.
// Alert files survive restarts; operators can also inspect or remove them by
// hand.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

var _ port.AlertStore = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create alerts dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

type alertFile struct {
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *FileStore) Write(alert port.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(alertFile(alert), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal alert %s: %w", alert.Name, err)
	}
	name := fmt.Sprintf("%s_%s.json", alert.CreatedAt.UTC().Format("20060102T150405"), alert.Name)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("write alert %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) List() ([]port.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read alerts dir %s: %w", s.dir, err)
	}

	var out []port.Alert
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read alert %s: %w", entry.Name(), err)
		}
		var af alertFile
		if err := json.Unmarshal(data, &af); err != nil {
			return nil, fmt.Errorf("decode alert %s: %w", entry.Name(), err)
		}
		out = append(out, port.Alert(af))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read alerts dir %s: %w", s.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return fmt.Errorf("remove alert %s: %w", entry.Name(), err)
		}
	}
	return nil
}
