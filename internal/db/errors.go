package db

import "errors"

// ErrNotFound is returned when a document is not found in the store.
var ErrNotFound = errors.New("document not found")

// ErrAlreadyExists is returned when a create collides with an existing document.
var ErrAlreadyExists = errors.New("document already exists")
