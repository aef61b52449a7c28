// Package engine implements the alarm due-detection and notification
// deduplication core.
//
// An Engine owns the trigger store (the last snapshot received), a periodic
// due-evaluation loop and a Cooldown guard. On each tick it scans groups and
// alarms in store order, fires at most one due alarm whose cooldown has
// elapsed, and records the firing instant for that alarm id. Snapshots are
// replaced wholesale and never validated: malformed entries simply never
// match, and an absent snapshot makes ticks no-ops. A single mutex
// serializes ticks, snapshot replacement and stats reads.
package engine
