package store

import "errors"

var (
	// ErrNotFound is returned when a reputation record does not exist
	ErrNotFound = errors.New("store: record not found")

	// ErrPermissionDenied is returned when a non-admin attempts an admin-only operation
	ErrPermissionDenied = errors.New("store: permission denied")

	// ErrUnsupportedDriver is returned by Open for drivers other than sqlite and mysql
	ErrUnsupportedDriver = errors.New("store: unsupported database driver")
)
