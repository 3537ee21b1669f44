// Package plugin provides the derivation strategies of operator trees.
//
// A Plugin combines a multiplexing discipline, which decides how the service
// left over by a cross flow is computed, with a curve source, which decides
// where leaf curves come from. Arbitrary multiplexing yields closed-form
// leftovers without parameters. FIFO multiplexing introduces one parameter
// per cross flow, named after the flow's alias.
//
// The synthetic curve sources ignore the numbers of the network and derive
// curves from flow and server ids instead. They exist to exercise the tree
// and solver machinery with known shapes, including a free latency parameter
// per server and a constraint on the root.
package plugin
