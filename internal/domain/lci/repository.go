package lci

import "context"

// Repository persists LCI partitions. Implementations must treat Write as a
// single unit: either every record of the call is stored or none is.
type Repository interface {
	// Databases lists the partitions that hold at least one record.
	Databases(ctx context.Context) ([]string, error)

	// Extract returns every process of database with its exchanges in
	// record order.
	Extract(ctx context.Context, database string) ([]*Process, error)

	// Write stores processes under database, replacing records with the
	// same key.
	Write(ctx context.Context, database string, processes map[Key]*Process) error

	// Delete removes every process of database.
	Delete(ctx context.Context, database string) error

	// Flows returns the biosphere flows of database.
	Flows(ctx context.Context, database string) ([]Flow, error)

	// WriteFlows stores biosphere flows under database.
	WriteFlows(ctx context.Context, database string, flows []Flow) error
}

//Personal.AI order the ending
