package storage

import "errors"

const (
	UniqueViolation = "23505"
	InvalidPassword = "28P01"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrExecutionNotFound = errors.New("sync execution not found")
	ErrRunInProgress     = errors.New("a sync run is already in progress")
	ErrBadCredentials    = errors.New("store credentials rejected")
)
