// Package selection persists the per-user state that outlives a process: the
// selected item for each subject and the credential saved by login.
package selection

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// StateFile is the file name inside the state directory.
const StateFile = "state.yaml"

// ErrNoCredential indicates nothing has been saved by login.
var ErrNoCredential = errors.New("no stored credential")

// Credential is the login result kept between runs.
type Credential struct {
	Token        string    `yaml:"token"`
	Subject      string    `yaml:"subject,omitempty"`
	RefreshToken string    `yaml:"refresh_token,omitempty"`
	Expiry       time.Time `yaml:"expiry,omitempty"`
}

type document struct {
	Credential *Credential       `yaml:"credential,omitempty"`
	Selections map[string]string `yaml:"selections,omitempty"`
}

// StoreConfig holds configuration for the file store.
type StoreConfig struct {
	BaseDir string
}

// FileStore keeps state in a single YAML file readable only by its owner.
type FileStore struct {
	baseDir string
	mu      sync.Mutex
}

// NewFileStore creates a file-based store, creating the directory if needed.
func NewFileStore(config StoreConfig) (*FileStore, error) {
	if config.BaseDir == "" {
		return nil, fmt.Errorf("state directory not configured")
	}
	if err := os.MkdirAll(config.BaseDir, 0o700); err != nil {
		return nil, err
	}
	return &FileStore{baseDir: config.BaseDir}, nil
}

// Path returns the state file path.
func (s *FileStore) Path() string {
	return filepath.Join(s.baseDir, StateFile)
}

// LoadSelection returns the remembered item for subject, or "".
func (s *FileStore) LoadSelection(subject string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return "", err
	}
	return doc.Selections[subject], nil
}

// SaveSelection remembers itemID for subject. An empty itemID forgets it.
func (s *FileStore) SaveSelection(subject, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if itemID == "" {
		if _, ok := doc.Selections[subject]; !ok {
			return nil
		}
		delete(doc.Selections, subject)
	} else {
		if doc.Selections == nil {
			doc.Selections = make(map[string]string)
		}
		doc.Selections[subject] = itemID
	}
	return s.write(doc)
}

// LoadCredential returns the stored credential.
func (s *FileStore) LoadCredential() (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return Credential{}, err
	}
	if doc.Credential == nil || doc.Credential.Token == "" {
		return Credential{}, ErrNoCredential
	}
	return *doc.Credential, nil
}

// SaveCredential stores cred, replacing any previous one.
func (s *FileStore) SaveCredential(cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	doc.Credential = &cred
	return s.write(doc)
}

// ClearCredential removes the stored credential. Selections are kept.
func (s *FileStore) ClearCredential() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if doc.Credential == nil {
		return nil
	}
	doc.Credential = nil
	return s.write(doc)
}

func (s *FileStore) read() (document, error) {
	var doc document
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return doc, err
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse %s: %w", s.Path(), err)
	}
	return doc, nil
}

// write replaces the file atomically so a crash never leaves half a document.
func (s *FileStore) write(doc document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.baseDir, ".state-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path())
}
