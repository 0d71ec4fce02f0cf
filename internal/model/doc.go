// Package model defines domain data structures shared across the app: media
// records with their formats, playlists, the persisted history document, and
// the download run state enum. Structures are plain values; observation of
// progress happens through the download orchestrator, never on the entities.
package model
