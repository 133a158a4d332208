// Package records persists accepted submissions as append-only JSON lists, one
// list per record kind.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind names a record list.
type Kind string

const (
	RideRequests       Kind = "ride_requests"
	DriverApplications Kind = "driver_applications"
)

// Kinds lists every record kind in a stable order.
var Kinds = []Kind{RideRequests, DriverApplications}

// ErrUnknownKind is returned for a kind without a storage key.
var ErrUnknownKind = errors.New("records: unknown record kind")

var storageKeys = map[Kind]string{
	RideRequests:       "campusRideRequests",
	DriverApplications: "campusRideDrivers",
}

// Key returns the fixed storage key of a kind.
func Key(kind Kind) (string, error) {
	key, ok := storageKeys[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return key, nil
}

// Store is the persisted record list abstraction. Append is a read-modify-write
// of the whole list and is not atomic across processes: concurrent writers can
// lose updates (last write wins).
type Store interface {
	// Append adds record to the list of kind. An absent or unparsable list is
	// treated as empty.
	Append(ctx context.Context, kind Kind, record any) error
	// EnsureInitialized writes an empty list if the key is absent.
	EnsureInitialized(ctx context.Context, kind Kind) error
	// List returns the stored records of kind, oldest first.
	List(ctx context.Context, kind Kind) ([]json.RawMessage, error)
}

// EnsureAll initializes every kind.
func EnsureAll(ctx context.Context, s Store) error {
	for _, kind := range Kinds {
		if err := s.EnsureInitialized(ctx, kind); err != nil {
			return err
		}
	}
	return nil
}

var emptyList = []byte("[]")

// decodeList parses a stored list. ok is false when data was present but
// unparsable; callers treat that as an empty list.
func decodeList(data []byte) (list []json.RawMessage, ok bool) {
	if len(data) == 0 {
		return nil, true
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, false
	}
	return list, true
}

// appendToList decodes data, appends record and re-encodes the list.
func appendToList(data []byte, record any) (out []byte, recovered bool, err error) {
	list, ok := decodeList(data)
	encoded, err := json.Marshal(record)
	if err != nil {
		return nil, false, fmt.Errorf("records: encode record: %w", err)
	}
	list = append(list, encoded)
	out, err = json.Marshal(list)
	if err != nil {
		return nil, false, fmt.Errorf("records: encode list: %w", err)
	}
	return out, !ok, nil
}
