// Package network is the read-only model the operator tree is built from:
// servers with rate-latency service, flows with token-bucket arrivals routed
// over a path of servers, and the nesting decomposition of a flow of
// interest's tandem.
//
// The package validates user-supplied input and returns errors for bad data.
// Everything downstream (the operator tree builder in particular) trusts a
// validated model and treats violations as programming errors.
package network
