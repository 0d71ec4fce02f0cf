// Package download turns external tool output into download runs. It holds
// the line classifier, the per-run orchestrator state machine, quality to
// format selection, and the Service that composes metadata queries, runs and
// history persistence for single items and playlists.
package download
