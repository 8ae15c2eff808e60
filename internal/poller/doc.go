// Package poller drives the periodic acquisition cycle.
//
// One Worker runs per device family. All workers share a single bus mutex
// because the underlying radio adapter handles one connection at a time;
// a worker holds the lock for its whole pass over the family, releases it,
// records the pass with any registered sinks, then sleeps until its next
// interval.
//
// Each successful acquisition is reported immediately, before the worker
// moves on to the next sensor. A failed acquisition is logged with the
// sensor's identity and running success rate and never reaches the
// reporter.
//
// In one-shot mode a worker performs exactly one pass and returns.
package poller
