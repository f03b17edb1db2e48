/*
Package types defines the entity value types shared across vaultkv: the
authenticated User, the per-index RevisionValue pair, and the anti-replay
Nonce token. These are logical views materialized by the registry, records,
and nonce packages from rows in the underlying byte store; the types
themselves carry no storage-layer behavior.

# Entities

	User          public_hash -> public_key, registration_time
	RevisionValue revision    -> value
	Nonce         embedded monotonic timestamp + random suffix

All byte fields are opaque to this package: the server never interprets
ciphertext, index bytes, or revision bytes. The only field ever parsed is
the Nonce's leading timestamp prefix, via Nonce.Timestamp, which the nonce
package calls when purging.

# Validation

Constructors reject the shapes that would make a row unrepresentable on
disk (an empty hash can't key a bucket, an undersized nonce has no
timestamp to extract); they do not attempt semantic validation of
ciphertext contents, since the server cannot read it.

# Thread Safety

Values are immutable after construction and safe for concurrent reads.
Byte slices are not copied on construction; callers that mutate a slice
after passing it in invalidate any value built from it.
*/
package types
