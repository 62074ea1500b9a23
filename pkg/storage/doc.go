// Package storage manages a backup's target directory.
//
// A target directory holds everything one backup run produces:
//
//	messages-00000.json  newest page of messages, then older pages
//	image-00000          downloaded images, no extension
//	images.json          remote image URL to local file name
//	index.html           rendered transcript
//
// Files other than the transcript are written to a temporary name and
// renamed into place, so a file that exists under its final name is
// complete.
//
// Usage:
//
//	manager, err := storage.NewManager("out/team-chat")
//	if err != nil {
//	    return err
//	}
//	name, err := manager.WritePage(0, page.Value)
package storage
