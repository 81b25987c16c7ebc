package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/zalando/go-keyring"
)

var (
	authService = "mclc"
	authUser    = "mclc_auth_data"
)

// credentialFileName is the keyring fallback file below the global dir
const credentialFileName = "mclc-credentials.json"

// Credentials is what gets persisted: an auth provider name plus its
// serialized state
type Credentials struct {
	Provider string
	Data     json.RawMessage
}

// Store persists launcher credentials in the system keyring, falling
// back to a plain file in the global directory when no keyring is
// available. It is a single writer resource: all reads and writes are
// serialized so a refresh in progress is never observed half written.
type Store struct {
	globalDir     string
	NoKeyRingMode bool

	mu    sync.Mutex
	cache *Credentials
}

// New creates a store and loads any existing credentials
func New(globalDir string) (*Store, error) {
	store := &Store{globalDir: globalDir}
	if err := store.find(); err != nil {
		return nil, err
	}
	return store, nil
}

// NewWithoutKeyring creates a store that only ever touches the
// credential file below globalDir
func NewWithoutKeyring(globalDir string) (*Store, error) {
	store := &Store{globalDir: globalDir, NoKeyRingMode: true}
	if err := store.readCredentialFile(credentialFileName); err != nil {
		return nil, err
	}
	return store, nil
}

// Get returns the stored credentials or nil
func (s *Store) Get() *Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache
}

// Set persists the given credentials
func (s *Store) Set(creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := json.Marshal(creds)
	if err != nil {
		return err
	}

	if !s.NoKeyRingMode {
		if err := keyring.Set(authService, authUser, string(blob)); err == nil {
			s.cache = creds
			return nil
		}
		s.NoKeyRingMode = true
	}

	if err := s.writeCredentialFile(credentialFileName, blob); err != nil {
		return err
	}
	s.cache = creds
	return nil
}

// Clear removes stored credentials (logout)
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = nil
	if !s.NoKeyRingMode {
		err := keyring.Delete(authService, authUser)
		if err != nil && err != keyring.ErrNotFound {
			return err
		}
	}
	err := os.Remove(filepath.Join(s.globalDir, credentialFileName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// find tries to load existing credentials
func (s *Store) find() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := keyring.Get(authService, authUser)
	switch err {
	case nil:
		creds := Credentials{}
		if err := json.Unmarshal([]byte(raw), &creds); err != nil {
			return err
		}
		s.cache = &creds
		return nil
	case keyring.ErrNotFound:
		// no credentials (yet) is fine
		return nil
	default:
		// no usable keyring on this system, fall back to a plain file
		s.NoKeyRingMode = true
		return s.readCredentialFile(credentialFileName)
	}
}

func (s *Store) readCredentialFile(location string) error {
	file := filepath.Join(s.globalDir, location)
	raw, err := os.ReadFile(file)
	switch {
	case err == nil:
		creds := Credentials{}
		if err := json.Unmarshal(raw, &creds); err != nil {
			return err
		}
		s.cache = &creds
		return nil
	case os.IsNotExist(err):
		// no file is fine
		return nil
	default:
		// everything else is not
		return err
	}
}

func (s *Store) writeCredentialFile(location string, content []byte) error {
	if err := os.MkdirAll(s.globalDir, os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.globalDir, location), content, 0700)
}
