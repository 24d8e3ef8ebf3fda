package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrEntryNotFound            = errors.New("entry not found")
	ErrStoreClosed              = errors.New("store is not open")
	ErrConversionUnsupported    = errors.New("conversion unsupported")
	ErrStagingIO                = errors.New("staging i/o failure")
	ErrClassificationIncomplete = errors.New("key classification incomplete")
	ErrReadOnly                 = errors.New("session is in read-only mode")
	ErrSaveDisabled             = errors.New("saving is disabled for this session")
	ErrBusy                     = errors.New("a save is in progress")
	ErrClosed                   = errors.New("session is closed")
	ErrInvalidValue             = errors.New("invalid value")
)

// StagingError describes a failed copy-in, copy-out or removal of a staging
// directory. It matches ErrStagingIO with errors.Is.
type StagingError struct {
	Op   string // "copy-in", "copy-out", "remove", "create"
	Path string
	Err  error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StagingError) Unwrap() error { return e.Err }

func (e *StagingError) Is(target error) bool { return target == ErrStagingIO }

// ConversionError reports a data type that cannot be written as a format.
// It matches ErrConversionUnsupported with errors.Is.
type ConversionError struct {
	From DataType
	To   FormatType
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s data to %s", e.From, e.To)
}

func (e *ConversionError) Is(target error) bool { return target == ErrConversionUnsupported }
