/*
Package registry implements the User Registry: registration, lookup, and
cascading deletion of user records keyed by public-key hash.

Each operation runs inside exactly one storage transaction and is
all-or-nothing: AddUser's three row writes (users roster entry, reg-date,
public key) either all land or none do, and DeleteUser's row removals
cascade into the record store in the same transaction.

# Logging

Operations log at info level with only a hex-encoded prefix of the public
hash, never the full hash or any stored key/value bytes.
*/
package registry
