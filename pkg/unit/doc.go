// Package unit defines the source-unit records handed to the indexer and
// their JSON encoding.
//
// A [SourceUnit] is immutable once assembled. Field names are fixed by the
// consumer: Name, Type, Repo, Files, Dir, Dependencies and Data, and per
// dependency Name, Version, Optional, Source, Scope, DefaultFeatures,
// Features, Platform and Path. Files and Dependencies are always arrays;
// Version, Platform and Path are omitted when empty.
//
// [WriteJSON] is the only structured output channel.
package unit
