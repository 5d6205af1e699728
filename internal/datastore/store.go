// Package datastore exports the accumulated movie catalog to a local
// SQLite file or a remote Datasette instance.
package datastore

// Store is a destination for exported rows.
type Store interface {
	// Connect establishes a connection to the data store
	Connect() error

	// CreateTable creates a table with the given schema if it doesn't exist
	CreateTable(schema string) error

	// BatchInsert upserts records into the table, keyed by its primary key
	BatchInsert(database string, table string, records []map[string]any) error

	// Close closes the connection to the data store
	Close() error
}
