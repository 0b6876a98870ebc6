// Package directory implements the session gate: a fixed table of operators
// that may open the document builder.
package directory

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/f2023065371-lang/fazal-portfolio/internal/apperr"
	"github.com/f2023065371-lang/fazal-portfolio/internal/models"
)

// Entry is one operator record. Exactly one of Password and PasswordHash is
// expected to be set; PasswordHash holds a bcrypt hash.
type Entry struct {
	Username     string
	Password     string
	PasswordHash string
	Contact      models.Contact
}

// Directory is an immutable username -> entry lookup table.
type Directory struct {
	entries map[string]Entry
}

// New builds a directory from the given entries. Usernames are normalised
// the same way Authenticate normalises its input.
func New(entries ...Entry) (*Directory, error) {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		key := normalize(e.Username)
		if key == "" {
			return nil, fmt.Errorf("directory: empty username")
		}
		if _, dup := m[key]; dup {
			return nil, fmt.Errorf("directory: duplicate username %q", key)
		}
		if e.Password == "" && e.PasswordHash == "" {
			return nil, fmt.Errorf("directory: user %q has no password", key)
		}
		e.Username = key
		m[key] = e
	}
	return &Directory{entries: m}, nil
}

// Authenticate returns the contact block of the matching entry. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (d *Directory) Authenticate(username, password string) (models.Contact, error) {
	e, ok := d.entries[normalize(username)]
	if !ok || !e.matches(password) {
		return models.Contact{}, apperr.ErrInvalidCredentials
	}
	return e.Contact, nil
}

// Lookup returns the contact of a user without checking a password. It backs
// non-interactive callers (CLI, MCP) that name the issuer explicitly.
func (d *Directory) Lookup(username string) (models.Contact, bool) {
	e, ok := d.entries[normalize(username)]
	return e.Contact, ok
}

// Len returns the number of entries.
func (d *Directory) Len() int {
	return len(d.entries)
}

func (e Entry) matches(password string) bool {
	if e.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(e.Password), []byte(password)) == 1
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
