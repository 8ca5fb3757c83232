// internal/state/reminder.go
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Reminder is a named bedtime prompt delivered to a session on a cron
// schedule. The prompt is fed through the normal chat pipeline, so a
// reminder can open a conversation or ask for a story directly.
type Reminder struct {
	Name       string `json:"name"`
	Prompt     string `json:"prompt"`
	Schedule   string `json:"schedule,omitempty"`
	SessionKey string `json:"session_key"`
	Enabled    bool   `json:"enabled"`
}

// ReminderStore is a JSON-file-backed store for reminders.
type ReminderStore struct {
	path string
	mu   sync.RWMutex
}

// NewReminderStore creates a new file-backed ReminderStore at the given file path.
func NewReminderStore(path string) *ReminderStore {
	return &ReminderStore{path: path}
}

// Path returns the file path used by this store.
func (s *ReminderStore) Path() string {
	return s.path
}

// List returns all reminders. Returns an empty slice if the file doesn't exist.
func (s *ReminderStore) List() ([]*Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reminders, err := s.load()
	if err != nil {
		return nil, err
	}
	if reminders == nil {
		return []*Reminder{}, nil
	}
	return reminders, nil
}

// Get finds a reminder by name. Returns an error if not found.
func (s *ReminderStore) Get(name string) (*Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reminders, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, reminder := range reminders {
		if reminder.Name == name {
			return reminder, nil
		}
	}
	return nil, fmt.Errorf("reminder not found: %s", name)
}

// Add appends a reminder. Returns an error if the name is already taken.
func (s *ReminderStore) Add(reminder *Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reminders, err := s.load()
	if err != nil {
		return err
	}

	for _, existing := range reminders {
		if existing.Name == reminder.Name {
			return fmt.Errorf("reminder already exists: %s", reminder.Name)
		}
	}

	reminders = append(reminders, reminder)
	return s.save(reminders)
}

// Remove deletes a reminder by name. Returns an error if not found.
func (s *ReminderStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reminders, err := s.load()
	if err != nil {
		return err
	}

	for i, reminder := range reminders {
		if reminder.Name == name {
			reminders = append(reminders[:i], reminders[i+1:]...)
			return s.save(reminders)
		}
	}
	return fmt.Errorf("reminder not found: %s", name)
}

// SetEnabled toggles the enabled flag for a reminder. Returns an error if not found.
func (s *ReminderStore) SetEnabled(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reminders, err := s.load()
	if err != nil {
		return err
	}

	for _, reminder := range reminders {
		if reminder.Name == name {
			reminder.Enabled = enabled
			return s.save(reminders)
		}
	}
	return fmt.Errorf("reminder not found: %s", name)
}

// load reads the JSON file and returns the reminder list. Returns nil if the
// file doesn't exist.
func (s *ReminderStore) load() ([]*Reminder, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reminders file: %w", err)
	}

	var reminders []*Reminder
	if err := json.Unmarshal(data, &reminders); err != nil {
		return nil, fmt.Errorf("unmarshal reminders: %w", err)
	}
	return reminders, nil
}

// save writes the reminder list to disk using atomic write (temp file + rename).
func (s *ReminderStore) save(reminders []*Reminder) error {
	data, err := json.MarshalIndent(reminders, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal reminders: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create reminders dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp reminders file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp reminders file: %w", err)
	}
	return nil
}
