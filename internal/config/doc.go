// Package config defines the format-agnostic model of an analysis input: the
// servers and flows of a network, one or more nesting trees and optional
// analysis defaults.
//
// It also defines the Loader interface that concrete formats (see package
// hcl) implement. The rest of the application only ever sees a *Model, so a
// new input format only needs a new Loader.
package config
