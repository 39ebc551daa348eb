// Package session keeps the in-progress campaign brief of each bot user.
package session

import (
	"strings"
	"sync"
	"time"
)

type Step int

const (
	StepIdle Step = iota
	StepProducts
	StepRegion
	StepAudience
	StepMessage
	StepRunning
)

// Draft is the part of a brief collected so far.
type Draft struct {
	UserID       int64
	Username     string
	Step         Step
	Products     []string
	Region       string
	Audience     string
	Message      string
	LastActivity time.Time
}

type Options struct {
	// TTL drops drafts idle for longer than this. Defaults to one hour.
	TTL time.Duration
	Now func() time.Time
}

type Store struct {
	mu     sync.Mutex
	drafts map[int64]*Draft
	ttl    time.Duration
	now    func() time.Time
}

func NewStore(opts Options) *Store {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Store{
		drafts: make(map[int64]*Draft),
		ttl:    ttl,
		now:    now,
	}
}

func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, userID)
}

// Get returns a copy of the user's draft. Expired drafts read as missing.
func (s *Store) Get(userID int64) (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[userID]
	if !ok {
		return Draft{}, false
	}
	if s.now().Sub(d.LastActivity) > s.ttl {
		delete(s.drafts, userID)
		return Draft{}, false
	}
	return d.clone(), true
}

// Update applies fn to the user's draft, creating it when missing, and
// returns the result.
func (s *Store) Update(userID int64, username string, fn func(*Draft)) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.getOrCreateLocked(userID, username)
	fn(d)
	d.LastActivity = s.now()
	return d.clone()
}

// Prune removes expired drafts and reports how many were dropped.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	now := s.now()
	for id, d := range s.drafts {
		if now.Sub(d.LastActivity) > s.ttl {
			delete(s.drafts, id)
			n++
		}
	}
	return n
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

func (s *Store) getOrCreateLocked(userID int64, username string) *Draft {
	if d, ok := s.drafts[userID]; ok && s.now().Sub(d.LastActivity) <= s.ttl {
		if d.Username == "" && username != "" {
			d.Username = username
		}
		return d
	}

	d := &Draft{
		UserID:       userID,
		Username:     username,
		LastActivity: s.now(),
	}
	s.drafts[userID] = d
	return d
}

func (d *Draft) clone() Draft {
	out := *d
	out.Products = append([]string(nil), d.Products...)
	return out
}

// ParseProducts splits a comma or newline separated list, dropping blanks.
func ParseProducts(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '\n' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
