// Package testutil provides shared test doubles for the processing
// pipeline: a scripted text generator, an in-memory memory store, a static
// searcher, and a recording task tracker. Tests should prefer these over
// package-local stubs when more than one collaborator is involved.
package testutil
