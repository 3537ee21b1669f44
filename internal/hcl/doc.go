// Package hcl loads network description files written in HCL into the
// format-agnostic model of package config.
//
// A network file declares servers and flows, one nesting tree per flow of
// interest and optionally an analysis block with defaults:
//
//	server "s1" {
//	  rate    = 10 * mbit
//	  latency = 2 * ms
//	}
//
//	flow "foi" {
//	  rate  = 1 * mbit
//	  burst = 20 * kbit
//	  path  = ["s1", "s2"]
//	}
//
//	nesting {
//	  flow = "foi"
//	  nest {
//	    flow = "x1"
//	    nest { servers = ["s1"] }
//	  }
//	  nest { servers = ["s2"] }
//	}
//
//	analysis {
//	  plugin    = "fifo"
//	  algorithm = "meta"
//	}
//
// Expressions may use arithmetic, the unit variables listed in
// EvalContext and a few numeric functions.
package hcl
