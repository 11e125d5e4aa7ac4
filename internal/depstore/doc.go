// Package depstore records compile runs and the files each run depended on.
//
// A watch-mode caller or build tool uses it to answer "which stylesheets
// must be rebuilt when this partial changes?" without recompiling anything.
// Storage is SQLite in WAL mode. Runs are ordered by a logical clock, never
// by wall time, and each run carries a UUIDv7 identifier.
package depstore
