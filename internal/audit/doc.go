// Package audit keeps an append-only JSON lines record of every command the
// dispatcher handled: who asked, which receiver, the parameters after
// clamping and normalization, and the outcome.
//
// Files are rotated by size; old generations are compressed and pruned.
package audit
