// Package worldkit is the Composition Root for worldkit, a session and entry
// access layer for Minecraft Bedrock world saves.
//
// It wires the session manager, the format conversion engine and the query
// engine together from functional options or a YAML config file.
//
// Features:
//
//   - **Staged access**: worlds can be opened on a throwaway copy, committed
//     back on save, or edited in place.
//   - **Round-trip fidelity**: entries load into NBT trees, SNBT, JSON, text,
//     integers or raw bytes and save back byte for byte when unchanged.
//   - **Structured search**: boolean combinators over display keys, raw
//     contents, custom fields and NBT tag queries.
//   - **Observable**: every component exposes its state via introspection, and
//     session events can be consumed as a lifecycle source.
//
// Usage:
//
//	mgr, err := worldkit.New(worldkit.WithLogger(logger))
//	w, err := mgr.Open(ctx, "./My World", worldkit.CopyUntilSave)
//	id, err := w.OpenEntry(worldkit.FileTarget("level.dat"))
//	v, err := w.LoadEntry(ctx, id, session.LoadOptions{})
//	v.NBT.Root().Set("GameType", int32(1))
//	w.SetValue(id, v)
//	w.SetUnsaved(id, true)
//	err = w.Save(ctx, session.SaveOptions{})
package worldkit
