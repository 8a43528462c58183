// Package core loads catalog TSV exports into a relational store.
//
// It has no transport dependencies: the HTTP server, the CLI and tests all
// hand it an open stream plus a declared category.
//
// # Pipeline
//
// A run routes the category (or file name) to one of four formats, drops
// the header line and processes rows strictly in order:
//
//	title.basics      -> Title (+ type, genres)
//	name.basics       -> Person (+ professions, known-for titles)
//	title.akas        -> TitleName (+ types, attributes)
//	title.principals  -> Principal
//
// Each row goes through [MapRow], [NormalizeID], the [Deduplicator], a
// referenced-entity check and the [LookupResolver] before the record is
// created and its associations attached. A bad row is logged with its
// natural key and counted in [Stats]; only [ErrUnrecognizedFormat] and
// stream read errors end a run.
//
// Formats depend on each other: akas and principals reference titles and
// people, so files should be imported in [FormatRank] order.
//
// # Storage
//
// Writes go through the [Store] interface, which has no update or delete
// methods. Each write commits on its own; there is no run-wide transaction.
//
// # Service
//
// [Service] runs imports in the background behind an [ImportLimiter] and
// tracks a [RunStatus] per run for the HTTP API.
package core
