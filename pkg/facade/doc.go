/*
Package facade implements the Database Facade: single-instance-per-data-
directory composition of the User Registry, Record Store, and Nonce
Ledger behind one contract.

GetOrOpen keeps a process-wide map from absolute data-directory path to a
weak.Pointer[Facade]. A second call for the same directory syncs the
existing facade's storage environment and hands back the same instance;
if sync fails, the stale instance is closed and replaced. Because the map
holds weak pointers, a facade with no remaining external holders can be
garbage-collected and its entry pruned lazily on the next lookup for that
directory, matching the "weak references... may be reclaimed" contract —
callers that want a facade to live for the process's duration must keep
their own strong reference to it.
*/
package facade
