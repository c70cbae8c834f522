package domain

import (
	"fmt"
	"strings"
)

// StoreKey identifies one machine inside a physical store, e.g. "TW Lion HQ 1.0-551".
type StoreKey struct {
	Store     string
	MachineID string
}

// ParseStoreKey splits a composite key on its last dash.
func ParseStoreKey(raw string) (StoreKey, error) {
	raw = strings.TrimSpace(raw)
	idx := strings.LastIndex(raw, "-")
	if idx <= 0 || idx == len(raw)-1 {
		return StoreKey{}, fmt.Errorf("%w: %q", ErrInvalidStoreKey, raw)
	}

	key := StoreKey{
		Store:     strings.TrimSpace(raw[:idx]),
		MachineID: strings.TrimSpace(raw[idx+1:]),
	}
	if key.Store == "" || key.MachineID == "" {
		return StoreKey{}, fmt.Errorf("%w: %q", ErrInvalidStoreKey, raw)
	}

	return key, nil
}

func (k StoreKey) String() string {
	return k.Store + "-" + k.MachineID
}

// StoreScope selects every machine whose store name starts with Prefix
type StoreScope struct {
	Prefix string
}

// ScopeFor returns the sales scope shared by all machines of the key's store.
func ScopeFor(key StoreKey) StoreScope {
	return StoreScope{Prefix: key.Store}
}

// Contains reports whether a store name falls inside the scope.
func (s StoreScope) Contains(store string) bool {
	return strings.HasPrefix(store, s.Prefix)
}
