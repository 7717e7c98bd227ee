// Package preflight checks that the directories bilidl writes to are usable
// before a long run starts.
package preflight
