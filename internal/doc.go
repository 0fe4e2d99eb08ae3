// Package internal holds small helpers shared by the basisauth packages:
// digest computation for signatures, rule hashes, and session secrets.
//
// Nothing in this package is part of the public API.
package internal
