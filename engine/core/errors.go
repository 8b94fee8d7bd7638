package core

import (
	"errors"
)

var (
	ErrInvalidBinding            = errors.New("invalid descriptor binding")
	ErrImmutableSamplerViolation = errors.New("write to immutable sampler")
	ErrFeatureNotPresent         = errors.New("feature not present")
	ErrOutOfPoolMemory           = errors.New("descriptor pool exhausted")
	ErrIncompatibleLayout        = errors.New("descriptor set layout is incompatible with pipeline layout")
	ErrUnknown                   = errors.New("unknown")
)
