// Package models defines the value types shared by the queue engine and the fetch pipeline.
//
//   - [Track] : an opaque catalog item with a stable ID, compared by identity only
//   - [RowSet] : an ordered sequence of ordered string fields, the unit fetched, cached and published per data source
//   - [Columns] : a header-name to index map with case-insensitive lookups, built from a row-set header
//
// Persistent entities implement [Model] and are stored by the repositories package.
package models
