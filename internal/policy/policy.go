package policy

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Lifecycle holds the operator-tunable parts of the trade lifecycle.
type Lifecycle struct {
	// MaxAmendments caps amendments per trade. 0 means unlimited.
	MaxAmendments int `yaml:"max_amendments" json:"maxAmendments"`
	// DeskAmendLimits overrides MaxAmendments for a desk.
	DeskAmendLimits map[string]int `yaml:"desk_amend_limits" json:"deskAmendLimits,omitempty"`
	// AutoApproveOnNoMatch approves a booked trade that no TRADE_BOOK rule routes.
	// When false the trade stays CREATED and follows the middle-office path.
	AutoApproveOnNoMatch bool `yaml:"auto_approve_on_no_match" json:"autoApproveOnNoMatch"`
}

func Default() Lifecycle {
	return Lifecycle{MaxAmendments: 1, AutoApproveOnNoMatch: true}
}

// AmendLimit returns the amendment cap for desk. 0 means unlimited.
func (l Lifecycle) AmendLimit(desk string) int {
	if n, ok := l.DeskAmendLimits[strings.ToUpper(desk)]; ok {
		return n
	}
	return l.MaxAmendments
}

func (l Lifecycle) Validate() error {
	var errs []error
	if l.MaxAmendments < 0 {
		errs = append(errs, fmt.Errorf("max_amendments must be >= 0"))
	}
	desks := make([]string, 0, len(l.DeskAmendLimits))
	for d := range l.DeskAmendLimits {
		desks = append(desks, d)
	}
	sort.Strings(desks)
	for _, d := range desks {
		if l.DeskAmendLimits[d] < 0 {
			errs = append(errs, fmt.Errorf("desk_amend_limits[%s] must be >= 0", d))
		}
	}
	return errors.Join(errs...)
}

// Parse reads YAML. Keys missing from the document keep their defaults.
func Parse(data []byte) (Lifecycle, error) {
	l := Default()
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Lifecycle{}, fmt.Errorf("parse policy: %w", err)
	}
	if len(l.DeskAmendLimits) > 0 {
		norm := make(map[string]int, len(l.DeskAmendLimits))
		for d, n := range l.DeskAmendLimits {
			norm[strings.ToUpper(d)] = n
		}
		l.DeskAmendLimits = norm
	}
	if err := l.Validate(); err != nil {
		return Lifecycle{}, err
	}
	return l, nil
}

func LoadFile(path string) (Lifecycle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lifecycle{}, fmt.Errorf("read policy %s: %w", path, err)
	}
	return Parse(data)
}

// Store serves the live policy to concurrent readers.
type Store struct {
	v    atomic.Pointer[Lifecycle]
	path string
}

func NewStore(l Lifecycle) *Store {
	s := &Store{}
	s.Set(l)
	return s
}

// Open loads path into a new Store. An empty path yields the defaults.
func Open(path string) (*Store, error) {
	if path == "" {
		return NewStore(Default()), nil
	}
	l, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	s := NewStore(l)
	s.path = path
	return s, nil
}

func (s *Store) Current() Lifecycle { return *s.v.Load() }

func (s *Store) Set(l Lifecycle) { s.v.Store(&l) }

func (s *Store) Path() string { return s.path }

// Reload re-reads the file. A bad file leaves the current policy in place.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	l, err := LoadFile(s.path)
	if err != nil {
		return err
	}
	s.Set(l)
	return nil
}
