// Package history keeps a SQLite ledger of finished batch reports so operators
// can review what a past run created and which stories still need attention.
//
// The ledger lives outside the creation pipeline: the CLI records a report
// after a batch returns. Schema changes bump schemaVersion in schema.go and
// require deleting the database.
package history
