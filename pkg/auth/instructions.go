package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowTokenGuide explains how to obtain a Graph bearer token for chats
func ShowTokenGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "GETTING A MICROSOFT GRAPH TOKEN")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "chatbackup reads your chats with a delegated Graph access token that")
	fmt.Fprintln(w, "has the Chat.Read and User.Read permissions.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Option 1: Graph Explorer")
	fmt.Fprintln(w, "  1. Open https://developer.microsoft.com/graph/graph-explorer and sign in")
	fmt.Fprintln(w, "  2. Consent to Chat.Read under 'Modify permissions'")
	fmt.Fprintln(w, "  3. Copy the value from the 'Access token' tab")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Option 2: Teams on the web")
	fmt.Fprintln(w, "  1. Open Teams in your browser and open the developer tools (F12)")
	fmt.Fprintln(w, "  2. In the Network tab, find a request to graph.microsoft.com")
	fmt.Fprintln(w, "  3. Copy the Authorization header without the 'Bearer ' prefix")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The chat ID is the 19:...@thread.v2 value in the chat's URL.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tokens expire after about an hour. Save one with 'chatbackup auth login'")
	fmt.Fprintln(w, "or export "+TokenEnvVar+".")
	fmt.Fprintln(w, rule)
}
