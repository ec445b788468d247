package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrOutOfBounds           = errors.New("point outside map bounds")
	ErrProjectionUnavailable = errors.New("map projection unavailable")
	ErrPathTooShort          = errors.New("path needs at least two points")
	ErrBelowThreshold        = errors.New("path shorter than minimum gesture length")
	ErrUnknownProfile        = errors.New("unknown travel profile")
	ErrUnknownLayer          = errors.New("unknown layer")
	ErrInvalidNote           = errors.New("invalid annotation note")
	ErrInvalidFeature        = errors.New("invalid feature")
)
