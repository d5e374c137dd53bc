// Package source defines the remote media library the transfer engine pulls
// from.
//
// The engine only depends on the [Library] interface: list the items,
// download one, delete one. [HTTPLibrary] is the concrete implementation
// used by the CLI, consuming a JSON item index over HTTP. Tests substitute
// in-memory fakes.
//
// Authentication, session handling, and the service's pagination protocol
// live behind whatever serves the index; the engine never sees them.
package source
