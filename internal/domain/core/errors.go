package core

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee profile not found")
	ErrEmployerNotFound = errors.New("employer profile not found")
	ErrProfileExists    = errors.New("profile already exists")
	ErrUnknownField     = errors.New("unknown patch field")
	ErrInvalidStatus    = errors.New("invalid status value")
)
