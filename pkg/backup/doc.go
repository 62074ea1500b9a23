// Package backup exports a chat from the Microsoft Graph API into a target
// directory.
//
// A run has four strictly sequential steps, each reading what the previous
// one left on disk:
//
//  1. create the target directory
//  2. Paginator stores every page of the message feed as messages-NNNNN.json
//  3. Harvester downloads each distinct inline image once and writes images.json
//  4. transcript.Renderer writes index.html
//
// Nothing is retried and the first error aborts the run. Files written up to
// that point are left in place.
//
// Usage:
//
//	client := graph.NewClient(&cfg.Graph, limiter, log)
//	b, err := backup.New(cfg, client, log)
//	if err != nil {
//	    return err
//	}
//	summary, err := b.Run(ctx, chatID, filepath.Join(cfg.Output.BaseDirectory, name))
package backup
