package subscription

import "errors"

var (
	ErrNotFound  = errors.New("subscription not found")
	ErrForbidden = errors.New("subscription belongs to another user")
)
