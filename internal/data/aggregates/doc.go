// Package aggregates owns the transactional write boundaries of the mastery
// engine.
//
// Writers here compose table-level repos from internal/data/repos and are the
// only code allowed to touch snapshot review columns or finalize runs.
package aggregates
