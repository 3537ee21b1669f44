// Package param holds the free parameters of a delay-bound formula together
// with their box bounds and general constraints.
package param
