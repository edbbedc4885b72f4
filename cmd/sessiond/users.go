package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/MrEthical07/goSession/password"
)

var errInvalidCredentials = errors.New("invalid credentials")

// userDirectory resolves a username and password to a subject id. It is
// read-only after construction.
type userDirectory struct {
	hasher *password.Argon2
	byName map[string]directoryEntry
	// dummy is verified for unknown usernames so lookups take comparable time.
	dummy string
}

type directoryEntry struct {
	uid  string
	hash string
}

func newUserDirectory(hasher *password.Argon2, users []UserEntry) (*userDirectory, error) {
	d := &userDirectory{hasher: hasher, byName: make(map[string]directoryEntry, len(users))}
	for _, u := range users {
		if u.UID == "" || u.Username == "" {
			return nil, fmt.Errorf("user entry %q: uid and username are required", u.Username)
		}
		stale, err := hasher.NeedsUpgrade(u.PasswordHash)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", u.Username, err)
		}
		if stale {
			log.Printf("[users] hash for %q uses weaker parameters; re-hash with sessiond -hash", u.Username)
		}
		d.byName[u.Username] = directoryEntry{uid: u.UID, hash: u.PasswordHash}
	}

	dummy, err := hasher.Hash("unused-dummy-password")
	if err != nil {
		return nil, err
	}
	d.dummy = dummy
	return d, nil
}

// Authenticate returns the uid for username when password matches.
func (d *userDirectory) Authenticate(username, pw string) (string, error) {
	entry, ok := d.byName[username]
	if !ok {
		_, _ = d.hasher.Verify(pw, d.dummy)
		return "", errInvalidCredentials
	}
	if ok, err := d.hasher.Verify(pw, entry.hash); err != nil || !ok {
		return "", errInvalidCredentials
	}
	return entry.uid, nil
}

func (d *userDirectory) Len() int {
	return len(d.byName)
}
