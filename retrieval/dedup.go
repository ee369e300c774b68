package retrieval

import (
	"fmt"
	"strings"

	"github.com/poiesic/talkrag/core"
)

// BlockDelimiter terminates every passage block in the context text.
const BlockDelimiter = "---\n"

// Deduplicate reduces matches, assumed score-descending, to a RetrievalContext.
// Matches with malformed metadata are skipped and counted. The first match of
// each record becomes its UniqueTalk; later matches of the same record still
// contribute their passage to the context text. Input order is never changed.
func Deduplicate(matches []core.Match) *core.RetrievalContext {
	rc := &core.RetrievalContext{
		Items: make([]core.ContextItem, 0, len(matches)),
	}
	seen := make(map[string]struct{}, len(matches))
	var text strings.Builder

	for _, m := range matches {
		item, ok := m.Item()
		if !ok {
			rc.Dropped++
			continue
		}
		rc.Items = append(rc.Items, item)
		writeBlock(&text, item)

		if _, dup := seen[item.RecordID]; dup {
			continue
		}
		seen[item.RecordID] = struct{}{}
		rc.Talks = append(rc.Talks, core.UniqueTalk{
			RecordID:  item.RecordID,
			Title:     item.Title,
			ChunkText: item.ChunkText,
			Score:     item.Score,
		})
	}

	rc.Text = text.String()
	return rc
}

func writeBlock(b *strings.Builder, item core.ContextItem) {
	fmt.Fprintf(b, "[Talk %s] \"%s\"\n%s\n%s", item.RecordID, item.Title, item.ChunkText, BlockDelimiter)
}
