// Package registry maps plugin names, as used in network files and on the
// command line, to the Go factories that create them.
//
// Plugin packages implement Module and register their factories at startup.
// The registry is then validated so that a misnamed or broken factory is
// caught before any analysis runs.
package registry
