package storage

import (
	"sort"
	"strings"
)

// Store is a durable string-keyed store
type Store interface {
	// Get returns the value for key and whether it exists
	Get(key string) (string, bool, error)
	// Set creates or replaces the value for key
	Set(key, value string) error
	// Remove deletes key; removing a missing key is not an error
	Remove(key string) error
	// Keys returns every key currently stored
	Keys() ([]string, error)
}

// KeysWithPrefix returns the sorted keys of s that start with prefix
func KeysWithPrefix(s Store, prefix string) ([]string, error) {
	keys, err := s.Keys()
	if err != nil {
		return nil, err
	}

	matched := make([]string, 0, len(keys))
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) {
			matched = append(matched, key)
		}
	}
	sort.Strings(matched)

	return matched, nil
}
