// Package workset provides a keyed, deduplicating concurrent work queue.
//
// Work items may recursively enqueue further keyed work, including keys that
// are already queued or in flight; the first registration of a key wins and
// later registrations are no-ops. This makes diamond-shaped and even
// cyclic-looking recursive expansion safe to express as plain "add work for
// each discovered neighbor" logic without duplicate execution.
package workset
