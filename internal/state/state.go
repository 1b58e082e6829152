// Package state mirrors a namespaced set of JSON fields into a storage.Store.
//
// Field f of namespace k is persisted under "k-f" as {"data": <value>}.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/studiowebux/gqlws/internal/storage"
)

// Separator joins a namespace and a field name into a storage key
const Separator = "-"

// ErrNotObject is returned when initial values do not encode to a JSON object
var ErrNotObject = errors.New("state: initial values must encode to a JSON object")

// ErrInvalidField is returned for an empty field name or one holding Separator
var ErrInvalidField = errors.New("state: invalid field name")

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// State is the in-memory mirror of one namespace
type State struct {
	mu     sync.RWMutex
	key    string
	store  storage.Store
	fields map[string]json.RawMessage
	frozen bool
}

// New loads every field stored under key, then writes initial values followed
// by the restored ones so stored values win over initial ones.
// initial may be nil, a map or a struct with json tags.
func New(store storage.Store, key string, initial any) (*State, error) {
	s := &State{
		key:    key,
		store:  store,
		fields: make(map[string]json.RawMessage),
	}

	restored, err := s.restore()
	if err != nil {
		return nil, err
	}

	defaults, err := toFields(initial)
	if err != nil {
		return nil, err
	}

	if err := s.setFields(defaults); err != nil {
		return nil, err
	}
	if err := s.setFields(restored); err != nil {
		return nil, err
	}

	return s, nil
}

// Key returns the namespace
func (s *State) Key() string {
	return s.key
}

// Prefix returns the storage key prefix of the namespace
func (s *State) Prefix() string {
	return s.key + Separator
}

// Frozen reports whether Cleanup has been called
func (s *State) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

// Set stores one field. Writes after Cleanup are dropped.
func (s *State) Set(name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode field %s: %w", name, err)
	}
	return s.setRaw(name, raw)
}

// SetMany stores several fields in key order
func (s *State) SetMany(values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.Set(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

// Get decodes a field into dst and reports whether it was present
func (s *State) Get(name string, dst any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.fields[name]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("failed to decode field %s: %w", name, err)
	}
	return true, nil
}

// Decode unmarshals the whole mirror into dst as if it were one JSON object
func (s *State) Decode(dst any) error {
	data, err := json.Marshal(s.Fields())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// Fields returns a copy of the mirror
func (s *State) Fields() map[string]json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(s.fields))
	for name, raw := range s.fields {
		out[name] = append(json.RawMessage(nil), raw...)
	}
	return out
}

// Cleanup erases every stored key of the namespace and freezes the state
func (s *State) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frozen = true

	keys, err := storage.KeysWithPrefix(s.store, s.Prefix())
	if err != nil {
		return fmt.Errorf("failed to list keys of %s: %w", s.key, err)
	}

	for _, key := range keys {
		if _, ok := s.field(key); !ok {
			continue
		}
		if err := s.store.Remove(key); err != nil {
			return err
		}
	}

	return nil
}

func (s *State) setRaw(name string, raw json.RawMessage) error {
	if name == "" || strings.Contains(name, Separator) {
		return fmt.Errorf("%w: %q", ErrInvalidField, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return nil
	}

	encoded, err := json.Marshal(envelope{Data: raw})
	if err != nil {
		return fmt.Errorf("failed to encode field %s: %w", name, err)
	}

	if err := s.store.Set(s.Prefix()+name, string(encoded)); err != nil {
		return err
	}

	s.fields[name] = raw
	return nil
}

func (s *State) setFields(fields map[string]json.RawMessage) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.setRaw(name, fields[name]); err != nil {
			return err
		}
	}
	return nil
}

// restore reads every "<key>-<field>" entry. Entries that are not a valid
// envelope are skipped.
func (s *State) restore() (map[string]json.RawMessage, error) {
	keys, err := storage.KeysWithPrefix(s.store, s.Prefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list keys of %s: %w", s.key, err)
	}

	restored := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		name, ok := s.field(key)
		if !ok {
			continue
		}
		value, ok, err := s.store.Get(key)
		if err != nil {
			return nil, err
		}
		if !ok || value == "" {
			continue
		}

		var env envelope
		if err := json.Unmarshal([]byte(value), &env); err != nil || env.Data == nil {
			continue
		}

		restored[name] = env.Data
	}

	return restored, nil
}

// field returns the field name of a storage key matched by the prefix scan.
// A name holding the separator belongs to a longer namespace ("ws-2-name"
// under "ws-") and is not ours.
func (s *State) field(key string) (string, bool) {
	name := strings.TrimPrefix(key, s.Prefix())
	if name == "" || strings.Contains(name, Separator) {
		return "", false
	}
	return name, true
}

func toFields(initial any) (map[string]json.RawMessage, error) {
	if initial == nil {
		return nil, nil
	}

	data, err := json.Marshal(initial)
	if err != nil {
		return nil, fmt.Errorf("failed to encode initial values: %w", err)
	}
	if string(data) == "null" {
		return nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, ErrNotObject
	}
	return fields, nil
}
