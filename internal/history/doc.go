// Package history persists completed downloads as one JSON document of
// video and playlist entries. Every mutation is a load, modify, save cycle
// against the backing file; the store does not lock, so concurrent callers
// must serialize mutations themselves.
package history
