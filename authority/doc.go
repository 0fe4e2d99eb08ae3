// Package authority provides an in-memory grant registry that satisfies the
// engine's Authority interface: users and departments are granted action
// identifiers (GUIDs), and Identify answers membership queries.
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O. It does not
// import the engine; the engine depends on it only through the Authority
// interface.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Mutate grants after [Registry.Freeze].
package authority
