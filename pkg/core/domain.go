// Package core holds the domain model shared by the world sessions, the format
// engine and the query engine.
package core

import (
	"bytes"
	"fmt"
	"strings"
)

// ContentType classifies what a raw store key (or a world file) holds.
type ContentType string

// AccessMode governs staging and saving for a world session.
type AccessMode int

const (
	// Readonly stages a copy and never saves.
	Readonly AccessMode = iota
	// ReadonlyDirect reads the source in place and never saves.
	ReadonlyDirect
	// Direct edits the source in place.
	Direct
	// CopyUntilSave stages a copy and writes it back over the source on save.
	CopyUntilSave
	// Copy stages a copy; saves only ever reach the copy.
	Copy
)

var accessModeNames = map[AccessMode]string{
	Readonly:       "readonly",
	ReadonlyDirect: "readonly-direct",
	Direct:         "direct",
	CopyUntilSave:  "copy-until-save",
	Copy:           "copy",
}

func (m AccessMode) String() string {
	if s, ok := accessModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseAccessMode resolves a mode from its String form.
func ParseAccessMode(s string) (AccessMode, error) {
	for m, name := range accessModeNames {
		if strings.EqualFold(name, s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown access mode %q", s)
}

// Staged reports whether the mode works on a staging copy.
func (m AccessMode) Staged() bool {
	return m == Readonly || m == CopyUntilSave || m == Copy
}

// ReadOnly reports whether the mode forbids saving.
func (m AccessMode) ReadOnly() bool {
	return m == Readonly || m == ReadonlyDirect
}

// CommitsOnSave reports whether a save copies the staging area back over the source.
func (m AccessMode) CommitsOnSave() bool {
	return m == CopyUntilSave
}

// TargetKind describes what a world session was opened on.
type TargetKind int

const (
	// TargetWorld is a Bedrock world directory (level.dat plus a db/ store).
	TargetWorld TargetKind = iota
	// TargetStore is a bare LevelDB directory.
	TargetStore
	// TargetDirectory is any other directory; only files can be edited.
	TargetDirectory
	// TargetFile is a single file.
	TargetFile
)

func (k TargetKind) String() string {
	switch k {
	case TargetWorld:
		return "world"
	case TargetStore:
		return "store"
	case TargetDirectory:
		return "directory"
	case TargetFile:
		return "file"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// HasStore reports whether sessions of this kind open an embedded store.
func (k TargetKind) HasStore() bool {
	return k == TargetWorld || k == TargetStore
}

// EntryTarget identifies what an entry session edits: a raw store key or a
// file relative to the world root. It is immutable.
type EntryTarget struct {
	key  []byte
	file string
}

// KeyTarget targets a raw store key.
func KeyTarget(key []byte) EntryTarget {
	return EntryTarget{key: bytes.Clone(key)}
}

// FileTarget targets a file relative to the world root (slash separated).
func FileTarget(rel string) EntryTarget {
	return EntryTarget{file: rel}
}

// IsKey reports whether the target is a store key.
func (t EntryTarget) IsKey() bool { return t.key != nil }

// Key returns a copy of the raw key.
func (t EntryTarget) Key() []byte { return bytes.Clone(t.key) }

// File returns the relative file path.
func (t EntryTarget) File() string { return t.file }

// Equal reports whether both targets address the same entry.
func (t EntryTarget) Equal(o EntryTarget) bool {
	if t.IsKey() != o.IsKey() {
		return false
	}
	if t.IsKey() {
		return bytes.Equal(t.key, o.key)
	}
	return t.file == o.file
}

func (t EntryTarget) String() string {
	if t.IsKey() {
		return fmt.Sprintf("key:%x", t.key)
	}
	return "file:" + t.file
}

// PendingEdit is an in-place edit recorded against an entry. Edits are kept in
// an append-only log and are not replayed onto the value.
type PendingEdit struct {
	Path  []string
	Value any
}
