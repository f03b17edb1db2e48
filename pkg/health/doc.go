/*
Package health exposes the database facade's liveness and readiness over
HTTP: a component-health registry plus a checker that confirms the
storage environment is actually reachable.

There is nothing in this process to probe over HTTP, TCP, or exec — the
facade is an embedded single-process store, not a cluster of containers
to supervise — so the surface is deliberately small: register a handful
of named components (storage, registry, nonce_ledger), update their
status as operations succeed or fail, and serve /healthz, /readyz, and
/livez the way an embedded-store process would.
*/
package health
