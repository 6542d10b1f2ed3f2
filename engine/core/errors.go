package core

import (
	"errors"
)

var (
	// ErrCyclicHierarchy indicates that a skeleton's parent links contain a
	// cycle, so no parent-before-child evaluation order exists.
	ErrCyclicHierarchy = errors.New("cyclic bone hierarchy")
	// ErrDanglingParent indicates a bone references a parent that does not
	// exist in the same skeleton.
	ErrDanglingParent = errors.New("dangling bone parent")
	// ErrMissingBone indicates an animation clip targets a bone that is
	// absent from the skeleton. The clip is rejected as a whole.
	ErrMissingBone = errors.New("clip references missing bone")
	// ErrInvalidConfiguration indicates a malformed parameter (max
	// influences < 1, negative time, negative falloff) rejected at the
	// call boundary before any computation starts.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
