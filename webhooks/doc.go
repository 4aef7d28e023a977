// Package webhooks contains notification verification, classification, and
// payload normalization for the tracker's webhook stream.
//
// The stream is at-least-once and unordered; two-phase transitions (milestone
// changes arrive as remove-then-add pairs) are normal, so normalization keeps
// each notification self-contained and lets the dispatcher derive state from
// the store rather than from delivery order.
package webhooks
