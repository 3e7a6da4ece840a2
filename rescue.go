package tierkv

import (
	"context"
	"errors"
	"sync"
)

// Category reports whether err belongs to a class of failures.
type Category func(err error) bool

// RescueSet is the mutable set of failure categories a Tiered adapter
// contains when they come from a cache tier. Anything not matched is fatal.
type RescueSet struct {
	mu   sync.RWMutex
	cats []Category
}

// Recoverable is the default category: every error except FatalError and
// context cancellation/deadline.
func Recoverable(err error) bool {
	if err == nil || IsFatal(err) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// DefaultRescueSet contains only Recoverable.
func DefaultRescueSet() *RescueSet {
	return NewRescueSet(Recoverable)
}

func NewRescueSet(cats ...Category) *RescueSet {
	s := &RescueSet{}
	s.cats = append(s.cats, cats...)
	return s
}

// Add adds one category per target, matched with errors.Is.
func (s *RescueSet) Add(targets ...error) {
	for _, target := range targets {
		target := target
		s.AddFunc(func(err error) bool { return errors.Is(err, target) })
	}
}

func (s *RescueSet) AddFunc(cat Category) {
	if cat == nil {
		return
	}
	s.mu.Lock()
	s.cats = append(s.cats, cat)
	s.mu.Unlock()
}

// Reset empties the set; every failure becomes fatal until categories are added.
func (s *RescueSet) Reset() {
	s.mu.Lock()
	s.cats = nil
	s.mu.Unlock()
}

func (s *RescueSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cats)
}

// Match reports whether any category contains err.
func (s *RescueSet) Match(err error) bool {
	if err == nil {
		return false
	}
	s.mu.RLock()
	cats := s.cats
	s.mu.RUnlock()
	for _, cat := range cats {
		if cat(err) {
			return true
		}
	}
	return false
}
