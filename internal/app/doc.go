// Package app wires the delay analysis together: it loads a network file,
// registers the multiplexing plugins, resolves the analysis settings and
// writes a report per flow of interest. It is independent of the command
// line, which only fills a Config.
package app
