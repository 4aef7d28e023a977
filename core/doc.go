// Package core contains canonical issue-metrics domain contracts, entities,
// and error envelopes. Lower-level adapters must depend on this package; core
// must not depend on storage-specific or transport-specific adapters.
package core
