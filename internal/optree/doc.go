// Package optree implements the binary operator tree of a delay analysis.
//
// An operator tree alternates between content nodes and operator nodes. The
// root is a Delay node whose only child is the H operator; H combines the
// service left for the flow of interest (its left operand) with the flow's
// arrival (its right operand). Below it, Servers nodes hold service curves
// that are either a single server (a leaf) or the result of a Convolution or
// Leftover operator, and Flow leaves hold arrival curves.
//
// Build turns a nesting decomposition into such a tree. Tree.DeriveSymbolics
// then walks it bottom-up and asks a Plugin for the symbolic term of every
// content node, collecting the free parameters, bounds and constraints the
// plugin creates on the way. Derived subtrees are cached: edits made through
// the Tree mark the edited node and its ancestors dirty, and only dirty
// subtrees are derived again.
//
// Contract violations (malformed shapes, duplicate parameters, unbounded
// parameters) panic. They indicate a bug in a builder or plugin, not bad
// input; input is validated earlier by package network.
package optree
