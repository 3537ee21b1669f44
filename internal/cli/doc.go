// Package cli parses the command line into an app.Config and maps usage
// errors onto exit codes. Analysis flags that are not given explicitly are
// left unset so that the network file's analysis block can supply them.
package cli
