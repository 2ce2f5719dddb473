package models

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateUser      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("not found")
	ErrStorage            = errors.New("storage error")
)
