// Package records persists the replica's collections in the local SQLite
// database.
//
// A collection is stored as ordered rows (collection, id, position, ...) and
// is always written as a whole: ReplaceAll deletes the previous rows and
// inserts the new ones. Callers that need atomicity run it inside
// dbx.WithTx; Persister does exactly that and also records in the metadata
// table that the collection has been initialized, so that an empty collection
// can be told apart from a first start.
package records
