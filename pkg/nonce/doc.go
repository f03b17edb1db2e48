/*
Package nonce implements the Nonce Ledger: a per-public-key duplicate-key
set of previously seen anti-replay tokens, and the purge that keeps that
set from growing without bound.

check_and_add_nonce is check-then-insert inside a single transaction: a
token already present is rejected, never re-accepted. Purge cadence is
on-access sampling rather than a background goroutine or on-commit
piggyback — after a token is accepted, the ledger runs a full purge scan
for that public key with low probability (PurgeSampleRate, default
1/256), bounding unbounded growth under sustained traffic without giving
an embedded library a goroutine to start, stop, or leak. ClearOldNonces
remains available for callers that want to force a purge explicitly.
*/
package nonce
