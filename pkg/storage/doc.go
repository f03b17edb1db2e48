/*
Package storage implements vaultkv's Byte-Store Abstraction: an embedded,
transactional, ordered map from byte keys to a value, or to a *set* of
duplicate values, backed by go.etcd.io/bbolt.

# Why bbolt, and why nested buckets

This engine wants an ordered-duplicates store in the LMDB/MDBX tradition:
a key may hold more than one value, the values are kept sorted, and a
cursor can walk them without a prefix scan of unrelated keys. bbolt has no
native dup-sort mode, but it has the one primitive that makes emulating it
cheap: a bucket's own keys are kept in lexicographic byte order, and a
bucket may nest other buckets.

So a "duplicate key" K in this package is a nested bucket named K, and
each of K's values is stored as an empty-value entry keyed by the
duplicate's bytes inside that bucket:

	root bucket
	├── "users"                         (dup bucket)
	│     ├── <public_hash_1>  -> ""
	│     └── <public_hash_2>  -> ""
	├── "users/<hash>/date"     -> 8-byte unix-ms           (plain row)
	├── "users/<hash>/key"      -> raw public key bytes     (plain row)
	├── "stores/<hash>"                 (dup bucket: index set)
	│     └── <index bytes>    -> ""
	├── "stores/<hash>/<index>"         (dup bucket: revision set)
	│     └── <revision bytes> -> ""
	└── "stores/<hash>/<index>/<rev>" -> value bytes        (plain row)

Walking a dup bucket's cursor from First() through Next() visits every
duplicate in sorted order in O(k) with no scan of sibling keys.

# Transactions

Every exported key/value primitive takes an explicit *bolt.Tx supplied by
the caller via Env.BeginTxn, pushed down to the primitive level so
registry/records/nonce can compose several primitive calls into one
all-or-nothing transaction for multi-step writes. A transaction is never
reused across exported facade calls.

# Error handling

Storage failures are wrapped in ErrStorage so callers can classify them
without string matching.
*/
package storage
