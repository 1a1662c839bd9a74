package view

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWriteTarget is returned when a write through $ref-value has
	// no container to land in.
	ErrInvalidWriteTarget = errors.New("invalid write target")
	// ErrRootWrite is returned when writing through a reference to the
	// whole document ("#").
	ErrRootWrite = fmt.Errorf("%w: reference points at the document root", ErrInvalidWriteTarget)
)
