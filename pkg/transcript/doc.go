// Package transcript renders the message pages of a backup into a single
// static HTML document, oldest message first.
//
// Messages sent by the viewer are aligned right and everyone else's left.
// Bot messages show only their sender and time. Plain text bodies are
// escaped, while HTML bodies are written as delivered with remote image
// links pointed at the downloaded copies.
package transcript
