// Package inbound applies normalized tracker notifications to persistent
// state.
//
// The dispatcher is the only writer: each notification's mutations and its
// event-log append share one unit of work, so a failed transition leaves no
// partial state behind and the at-least-once stream can safely replay it.
package inbound
