/*
Package metrics defines and registers vaultkv's Prometheus metrics:
counters for registry and record-store operations by outcome, nonce
ledger admission and purge counts, a histogram timing facade calls, and
a storage-transaction histogram that no package in this module records
into. All metrics are registered at package init and
exposed via Handler for scraping.

	mux.Handle("/metrics", metrics.Handler())

UsersTotal is updated inline by pkg/registry's AddUser/DeleteUser rather
than by a periodic collector — there is no external cluster state to
poll in an embedded single-process store, so every mutation that changes
the registry's size increments or decrements the gauge itself.
*/
package metrics
