package bench

// Fixed identifiers and sizes the operations and their correctness
// properties depend on.
const (
	// RelationUserID is the user loaded by OneRelation. It exists whenever
	// at least RelationUserID users were seeded into a fresh schema.
	RelationUserID = 42

	// LastRowOffset is the zero-based offset FetchLast reads.
	LastRowOffset = 9_999

	// BulkUsers is the row count for bulk and offset operations.
	BulkUsers = 10_000

	RelationUsers        = 300
	RelationPostsPerUser = 30

	// BatchSize is the row count of one batch_insert trial.
	BatchSize = 100

	PostContentLength = 500
)
