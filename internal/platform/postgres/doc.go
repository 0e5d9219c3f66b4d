// Package postgres implements the durable task queue on PostgreSQL.
// Pending tasks live in the tasks table; a claim is a single-statement
// UPDATE guarded by FOR UPDATE SKIP LOCKED, so racing workers never receive
// the same task. Finalization inserts the activity record and deletes the
// pending row inside one transaction.
package postgres
