// Package api exposes a local HTTP control surface for a front-end: metadata
// inspection, download start and stop, history browsing, and a websocket
// feed of run events.
package api
