package storage

import "errors"

// ErrReceiptExists is returned when a receipt with the same reference id was already stored.
var ErrReceiptExists = errors.New("receipt already exists")

// ErrReceiptNotFound is returned when no receipt has the requested reference id.
var ErrReceiptNotFound = errors.New("receipt not found")
