// Copyright (c) 2026 John Dewey

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/crypto/pbkdf2"
	"gopkg.in/yaml.v3"

	"github.com/retr0h/gatehouse/internal/validation"
)

const (
	// DefaultIterations is the PBKDF2 round count for new verifiers.
	DefaultIterations = 600_000

	// DefaultBootstrapPassword is the shipped bootstrap administrator
	// password. Deployments are expected to change it.
	DefaultBootstrapPassword = "ChangeMe!2026"

	saltSize     = 16
	verifierSize = 32
)

// Option configures a Store.
type Option func(*Store)

// WithIterations sets the PBKDF2 round count used for new verifiers.
func WithIterations(
	n int,
) Option {
	return func(s *Store) {
		if n > 0 {
			s.iterations = n
		}
	}
}

// WithRoleChecker sets the registry used to validate role names on
// registration.
func WithRoleChecker(
	rc RoleChecker,
) Option {
	return func(s *Store) {
		s.roles = rc
	}
}

// WithNow overrides the clock.
func WithNow(
	fn func() time.Time,
) Option {
	return func(s *Store) {
		s.now = fn
	}
}

// Store owns the identity table. The mutex guards reads and writes and is
// held across persistence so the file on disk always matches memory.
type Store struct {
	logger     *slog.Logger
	appFs      afero.Fs
	path       string
	iterations int
	roles      RoleChecker
	now        func() time.Time

	mu      sync.Mutex
	records map[string]*Record

	dummySalt     []byte
	dummyVerifier []byte
}

// Open loads the identity table at path, creating an empty table when the
// file does not exist yet.
func Open(
	logger *slog.Logger,
	appFs afero.Fs,
	path string,
	opts ...Option,
) (*Store, error) {
	s := &Store{
		logger:        logger,
		appFs:         appFs,
		path:          path,
		iterations:    DefaultIterations,
		now:           time.Now,
		records:       make(map[string]*Record),
		dummySalt:     make([]byte, saltSize),
		dummyVerifier: make([]byte, verifierSize),
	}

	for _, opt := range opts {
		opt(s)
	}

	if _, err := rand.Read(s.dummySalt); err != nil {
		return nil, fmt.Errorf("generate dummy salt: %w", err)
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) load() error {
	data, err := afero.ReadFile(s.appFs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug(
				"identity table not found, starting empty",
				slog.String("path", s.path),
			)
			return nil
		}
		return fmt.Errorf("read identity table: %w", err)
	}

	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("decode identity table: %w", err)
	}

	for name, rec := range t.Users {
		if rec.Username == "" {
			rec.Username = name
		}
		s.records[name] = &rec
	}

	s.logger.Debug(
		"loaded identity table",
		slog.String("path", s.path),
		slog.Int("identities", len(s.records)),
	)

	return nil
}

// Register creates a new identity. The table is persisted before returning.
func (s *Store) Register(
	username string,
	password string,
	role string,
) (Identity, error) {
	if !validation.IsValidUsername(username) {
		return Identity{}, ErrInvalidUsername
	}

	if role == "" || (s.roles != nil && !s.roles.HasRole(role)) {
		return Identity{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	if !validation.IsStrongPassword(password) {
		return Identity{}, ErrWeakPassword
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[username]; ok {
		return Identity{}, fmt.Errorf("%w: %q", ErrAlreadyExists, username)
	}

	salt, verifier, err := s.derive(password, s.iterations)
	if err != nil {
		return Identity{}, err
	}

	now := s.now().UTC()
	rec := &Record{
		Username:   username,
		Salt:       hex.EncodeToString(salt),
		Verifier:   hex.EncodeToString(verifier),
		Iterations: s.iterations,
		Role:       role,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.records[username] = rec
	if err := s.persist(); err != nil {
		delete(s.records, username)
		return Identity{}, err
	}

	return rec.identity(), nil
}

// Authenticate reports whether password matches the stored verifier for
// username. Unknown users and wrong passwords are indistinguishable, both in
// result and in the work performed.
func (s *Store) Authenticate(
	username string,
	password string,
) bool {
	s.mu.Lock()
	rec, ok := s.records[username]
	var snapshot Record
	if ok {
		snapshot = *rec
	}
	s.mu.Unlock()

	if !ok {
		got := pbkdf2.Key([]byte(password), s.dummySalt, s.iterations, verifierSize, sha256.New)
		_ = subtle.ConstantTimeCompare(got, s.dummyVerifier)
		return false
	}

	salt, err := hex.DecodeString(snapshot.Salt)
	if err != nil {
		s.logger.Error(
			"corrupt salt in identity record",
			slog.String("username", username),
		)
		return false
	}

	want, err := hex.DecodeString(snapshot.Verifier)
	if err != nil {
		s.logger.Error(
			"corrupt verifier in identity record",
			slog.String("username", username),
		)
		return false
	}

	got := pbkdf2.Key([]byte(password), salt, snapshot.Iterations, len(want), sha256.New)

	return subtle.ConstantTimeCompare(got, want) == 1
}

// ChangePassword re-salts and re-derives the verifier for username.
func (s *Store) ChangePassword(
	username string,
	newPassword string,
) error {
	if !validation.IsStrongPassword(newPassword) {
		return ErrWeakPassword
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[username]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, username)
	}

	salt, verifier, err := s.derive(newPassword, s.iterations)
	if err != nil {
		return err
	}

	previous := *rec
	rec.Salt = hex.EncodeToString(salt)
	rec.Verifier = hex.EncodeToString(verifier)
	rec.Iterations = s.iterations
	rec.UpdatedAt = s.now().UTC()

	if err := s.persist(); err != nil {
		*rec = previous
		return err
	}

	return nil
}

// RoleOf returns the role assigned to username.
func (s *Store) RoleOf(
	username string,
) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[username]
	if !ok {
		return "", false
	}

	return rec.Role, true
}

// Get returns the public view of username.
func (s *Store) Get(
	username string,
) (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[username]
	if !ok {
		return Identity{}, false
	}

	return rec.identity(), true
}

// List returns every identity sorted by username.
func (s *Store) List() []Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Identity, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.identity())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Username < out[j].Username
	})

	return out
}

// HasRole reports whether any identity is assigned role.
func (s *Store) HasRole(
	role string,
) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.Role == role {
			return true
		}
	}

	return false
}

// Len returns the number of identities.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

func (s *Store) derive(
	password string,
	iterations int,
) ([]byte, []byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("generate salt: %w", err)
	}

	return salt, pbkdf2.Key([]byte(password), salt, iterations, verifierSize, sha256.New), nil
}

// persist writes the full table to a temporary file, syncs it, and renames
// it over the target. Callers hold s.mu.
func (s *Store) persist() error {
	t := table{Users: make(map[string]Record, len(s.records))}
	for name, rec := range s.records {
		t.Users[name] = *rec
	}

	data, err := yaml.Marshal(&t)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrPersist, err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := s.appFs.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("%w: create directory: %w", ErrPersist, err)
		}
	}

	tmp := s.path + ".tmp"
	f, err := s.appFs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("%w: open temp file: %w", ErrPersist, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = s.appFs.Remove(tmp)
		return fmt.Errorf("%w: write temp file: %w", ErrPersist, err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = s.appFs.Remove(tmp)
		return fmt.Errorf("%w: sync temp file: %w", ErrPersist, err)
	}

	if err := f.Close(); err != nil {
		_ = s.appFs.Remove(tmp)
		return fmt.Errorf("%w: close temp file: %w", ErrPersist, err)
	}

	if err := s.appFs.Rename(tmp, s.path); err != nil {
		_ = s.appFs.Remove(tmp)
		return fmt.Errorf("%w: rename: %w", ErrPersist, err)
	}

	s.logger.Debug(
		"persisted identity table",
		slog.String("path", s.path),
		slog.Int("identities", len(s.records)),
	)

	return nil
}
