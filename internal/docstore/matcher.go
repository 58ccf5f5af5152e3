package docstore

import (
	"strings"
)

// maxBlockDepth bounds traversal into nested content.
const maxBlockDepth = 8

// flatBlock is one traversed block with the top-level ancestor it resolves to.
type flatBlock struct {
	topLevel *Block
	text     string
}

// MatchBlocks scans every content block, scoring each block whose normalized
// text contains a normalized snippet by len(snippet)/len(blockText). The
// tightest-fitting container wins over a large block that merely happens to
// contain the snippet. A match inside nested content resolves to its
// top-level ancestor, since downstream mutation operates on top-level blocks
// only. Returns nil when no snippet matches anything.
func MatchBlocks(blocks []Block, snippets []string) *BlockMatch {
	normalized := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if n := normalize(s); n != "" {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return nil
	}

	var flat []flatBlock
	for i := range blocks {
		top := &blocks[i]
		collect(top, top, 0, &flat)
	}

	var (
		best      *flatBlock
		bestScore float64
		bestText  string
	)
	for i := range flat {
		blockText := normalize(flat[i].text)
		if blockText == "" {
			continue
		}
		for _, snippet := range normalized {
			if !strings.Contains(blockText, snippet) {
				continue
			}
			score := float64(len(snippet)) / float64(len(blockText))
			if score > bestScore {
				best = &flat[i]
				bestScore = score
				bestText = flat[i].text
			}
		}
	}

	if best == nil {
		return nil
	}
	return &BlockMatch{
		BlockID:     best.topLevel.ID,
		URL:         best.topLevel.URL,
		MatchedText: bestText,
	}
}

func collect(b *Block, top *Block, depth int, out *[]flatBlock) {
	if depth > maxBlockDepth {
		return
	}
	*out = append(*out, flatBlock{topLevel: top, text: b.Text})
	for i := range b.Children {
		collect(&b.Children[i], top, depth+1, out)
	}
}

// normalize lowercases and collapses all whitespace runs to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
