package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"typeraider/model"
)

// Session is one persisted chat: the folded history and the files that were
// in the chat, for one working tree.
type Session struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Root      string       `json:"root"`
	Model     string       `json:"model"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Turns     []model.Turn `json:"turns"`
	Files     []string     `json:"files,omitempty"`
}

// SessionMetadata is a lightweight version of Session for listing
type SessionMetadata struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Root      string    `json:"root"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	TurnCount int       `json:"turn_count"`
}

// ErrSessionNotFound is returned by Load for an unknown id.
var ErrSessionNotFound = errors.New("session not found")

// SessionStorage handles session persistence
type SessionStorage struct {
	sessionsDir string
	now         func() time.Time
}

// NewSessionStorage creates a new session storage
func NewSessionStorage(dataDir string) (*SessionStorage, error) {
	sessionsDir := filepath.Join(dataDir, "sessions")

	// 0700: sessions hold source code and conversation history
	if err := os.MkdirAll(sessionsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &SessionStorage{
		sessionsDir: sessionsDir,
		now:         time.Now,
	}, nil
}

// NewSession returns an unsaved session for the working tree at root.
func NewSession(root, modelName string) *Session {
	return &Session{
		ID:    uuid.New().String(),
		Root:  root,
		Model: modelName,
	}
}

// Save saves a session to disk
func (s *SessionStorage) Save(session *Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.Name == "" {
		session.Name = GenerateSessionName(firstUserTurn(session.Turns))
	}

	session.UpdatedAt = s.now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = session.UpdatedAt
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(s.path(session.ID), data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load loads a session from disk
func (s *SessionStorage) Load(id string) (*Session, error) {
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// List returns metadata for all sessions, sorted by update time (newest first)
func (s *SessionStorage) List() ([]SessionMetadata, error) {
	entries, err := os.ReadDir(s.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessions []SessionMetadata

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.sessionsDir, entry.Name()))
		if err != nil {
			continue // Skip corrupted files
		}

		var session Session
		if err := json.Unmarshal(data, &session); err != nil {
			continue // Skip corrupted files
		}

		sessions = append(sessions, SessionMetadata{
			ID:        session.ID,
			Name:      session.Name,
			Root:      session.Root,
			Model:     session.Model,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
			TurnCount: len(session.Turns),
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	return sessions, nil
}

// LatestForRoot loads the most recently updated session of the working tree
// at root. It returns nil, nil when there is none.
func (s *SessionStorage) LatestForRoot(root string) (*Session, error) {
	sessions, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, meta := range sessions {
		if meta.Root == root {
			return s.Load(meta.ID)
		}
	}
	return nil, nil
}

// Delete deletes a session from disk
func (s *SessionStorage) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// SaveCurrentSessionID saves the ID of the current session
func (s *SessionStorage) SaveCurrentSessionID(id string) error {
	return os.WriteFile(s.currentIDPath(), []byte(id), 0600)
}

// LoadCurrentSessionID loads the ID of the last active session
func (s *SessionStorage) LoadCurrentSessionID() (string, error) {
	data, err := os.ReadFile(s.currentIDPath())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *SessionStorage) path(id string) string {
	return filepath.Join(s.sessionsDir, id+".json")
}

func (s *SessionStorage) currentIDPath() string {
	return filepath.Join(filepath.Dir(s.sessionsDir), "current_session.id")
}

// GenerateSessionName generates a session name from the first user message
func GenerateSessionName(firstMessage string) string {
	name := strings.TrimSpace(strings.NewReplacer("\n", " ", "\r", " ").Replace(firstMessage))
	if name == "" {
		return fmt.Sprintf("Session %s", time.Now().Format("Jan 2, 3:04 PM"))
	}
	if len(name) > 30 {
		name = strings.TrimSpace(name[:30]) + "..."
	}
	return name
}

func firstUserTurn(turns []model.Turn) string {
	for _, t := range turns {
		if t.Role == model.RoleUser {
			return t.Content
		}
	}
	return ""
}
