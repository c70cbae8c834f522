package domain

import "errors"

var (
	// ErrInvalidStoreKey is returned when a store key is not "<store>-<machine>".
	ErrInvalidStoreKey = errors.New("invalid store key")

	// ErrNoWarehouseSelected is returned when warehouse-aware mode is requested without warehouses.
	ErrNoWarehouseSelected = errors.New("at least one warehouse must be selected")

	// ErrUnknownStrategy is returned for strategy labels outside stable/aggressive/exploratory.
	ErrUnknownStrategy = errors.New("unknown replenishment strategy")

	// ErrDataUpdating is returned while an ingest run is replacing the inventory snapshot.
	ErrDataUpdating = errors.New("inventory data is being updated")
)
