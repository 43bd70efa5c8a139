// Package internalerr holds the sentinel errors shared by kinship packages and
// re-exports github.com/cockroachdb/errors so callers wrap with stack traces.
package internalerr

import (
	crdb "github.com/cockroachdb/errors"
)

// Sentinel errors for common cases
var (
	ErrNotFound        = crdb.New("not found")
	ErrInvalidInput    = crdb.New("invalid input")
	ErrInvalidName     = crdb.New("invalid name")
	ErrUnknownRelation = crdb.New("unknown relation")
	ErrStoreClosed     = crdb.New("fact store closed")
	ErrInvalidConfig   = crdb.New("invalid configuration")
)

// Creation and wrapping
var (
	New      = crdb.New
	Newf     = crdb.Newf
	Wrap     = crdb.Wrap
	Wrapf    = crdb.Wrapf
	WithHint = crdb.WithHint
	Mark     = crdb.Mark
)

// Inspection
var (
	Is = crdb.Is
	As = crdb.As
)
