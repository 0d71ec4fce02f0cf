// Package platform contains OS integration and external tooling glue: the
// yt-dlp process client, the metadata payload parser, and filesystem helpers.
package platform
