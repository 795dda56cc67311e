package domain

import "errors"

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrListingNotFound  = errors.New("listing not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrForbidden        = errors.New("user not authorized to perform this action")
	ErrUnauthenticated  = errors.New("authentication required")
	ErrStoreFailure     = errors.New("store failure")
)
