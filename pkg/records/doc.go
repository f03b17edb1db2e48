/*
Package records implements the Record Store: per-user indices, each
holding an immutable *set* of (revision, value) pairs.

Layout (logical -> physical, via pkg/keyenc):

	stores/<hash>                index set, duplicate values = index bytes
	stores/<hash>/<index>        revision set, duplicate values = revision bytes
	stores/<hash>/<index>/<rev>  plain row, value = the opaque blob

put rejects a revision that already exists under its index — revisions are
immutable, client-chosen bytes, never server-generated version numbers.
get_record tolerates a revision duplicate whose value row is missing
(documented orphan-value anomaly) by skipping it rather than failing the
whole call; put and delete never leave such an orphan behind.
*/
package records
