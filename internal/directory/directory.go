// Package directory owns the per-account user map and the sharded name
// index used for mention autocompletion.
package directory

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vedran77/pulsedesk/internal/domain"
)

// ErrInvalidName is returned when a user is saved with an empty name.
var ErrInvalidName = errors.New("user name must not be empty")

// Directory maps user id to user and keeps a secondary index sharded by the
// lowercase first rune of the name. Each id lives in exactly one bucket,
// under its current name. Bucket order is insertion order.
//
// The first-rune sharding keeps prefix scans local at the cost of uneven
// bucket sizes; callers page with a limit so the skew is tolerable.
type Directory struct {
	users map[string]*domain.User
	index map[rune][]string
}

func New() *Directory {
	return &Directory{
		users: make(map[string]*domain.User),
		index: make(map[rune][]string),
	}
}

// PrefixResult is the outcome of a prefix scan. ExactIndex is the position
// of the exact (case-insensitive) match within Matches, or -1. The exact
// match is not moved to the front here; ranking is the caller's job.
type PrefixResult struct {
	Matches    []*domain.User
	ExactIndex int
}

// SaveUser inserts or replaces the record for u.ID. On a rename the old
// index entry is removed from the bucket of the previous name before the
// new entry is inserted. Returns the stored user.
func (d *Directory) SaveUser(u *domain.User) (*domain.User, error) {
	if u == nil || u.Name == "" {
		return nil, ErrInvalidName
	}

	prev, ok := d.users[u.ID]
	switch {
	case !ok:
		key := bucketKey(u.Name)
		d.index[key] = append(d.index[key], u.ID)
	case prev.Name != u.Name:
		d.removeFromIndex(u.ID, prev.Name)
		key := bucketKey(u.Name)
		d.index[key] = append(d.index[key], u.ID)
	}

	d.users[u.ID] = u
	return u, nil
}

// FindByID returns the user for id, if present.
func (d *Directory) FindByID(id string) (*domain.User, bool) {
	u, ok := d.users[id]
	return u, ok
}

// FindByNamePrefix scans the bucket for the query's first rune and collects
// users whose lowercased name equals the query or starts with it, in bucket
// order, stopping once limit matches are collected.
func (d *Directory) FindByNamePrefix(query string, limit int) PrefixResult {
	res := PrefixResult{ExactIndex: -1}
	if query == "" || limit <= 0 {
		return res
	}

	q := strings.ToLower(query)
	bucket, ok := d.index[bucketKey(q)]
	if !ok {
		return res
	}

	for _, id := range bucket {
		u, ok := d.users[id]
		if !ok {
			continue
		}
		name := strings.ToLower(u.Name)
		if name != q && !strings.HasPrefix(name, q) {
			continue
		}
		if name == q && res.ExactIndex < 0 {
			res.ExactIndex = len(res.Matches)
		}
		res.Matches = append(res.Matches, u)
		if len(res.Matches) >= limit {
			break
		}
	}
	return res
}

// Len reports the number of users in the directory.
func (d *Directory) Len() int {
	return len(d.users)
}

func (d *Directory) removeFromIndex(id, name string) {
	key := bucketKey(name)
	bucket := d.index[key]
	for i, cur := range bucket {
		if cur == id {
			d.index[key] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

func bucketKey(name string) rune {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.ToLower(r)
}
