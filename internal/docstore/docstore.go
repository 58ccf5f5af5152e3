package docstore

import "context"

// Block is one content block of a document. Nested content appears under
// Children; mutation and annotation operate on top-level blocks only.
type Block struct {
	ID       string  `json:"id"`
	URL      string  `json:"url"`
	Text     string  `json:"text"`
	Children []Block `json:"children,omitempty"`
}

// StyleDescriptor captures how entries are formatted in a document so
// appended entries blend in.
type StyleDescriptor struct {
	EntryFormat    string `json:"entry_format"`
	HeadingLevel   int    `json:"heading_level"`
	UsesQAPrefixes bool   `json:"uses_qa_prefixes"`
}

// BlockMatch identifies the top-level block backing an answer.
type BlockMatch struct {
	BlockID     string
	URL         string
	MatchedText string
}

// DocumentStore is the backing document corpus, consumed as an external
// collaborator.
type DocumentStore interface {
	FetchContent(ctx context.Context, ref string) (string, error)
	FetchBlocks(ctx context.Context, ref string) ([]Block, error)
	AnalyzeFormat(ctx context.Context, ref string) (*StyleDescriptor, error)
	// AppendEntry appends a question/answer entry and returns its URL.
	AppendEntry(ctx context.Context, ref, question, answer string, style *StyleDescriptor) (string, error)
	// UpdateBlock overwrites a top-level block's content and returns its URL.
	UpdateBlock(ctx context.Context, blockID, text string) (string, error)
	// Annotate attaches a note to a block. Best-effort: callers treat
	// failure as non-fatal.
	Annotate(ctx context.Context, blockID, text string) (string, error)
	// DocumentURL returns a browsable link for a document reference.
	DocumentURL(ref string) string
}

// Store is what the lifecycle services consume: the document collaborator
// plus cache invalidation after mutations.
type Store interface {
	DocumentStore
	Invalidate(ctx context.Context, ref string)
}

// FindBlock locates the passage backing the given evidence snippets,
// returning nil when no snippet matches any block.
func FindBlock(ctx context.Context, ds DocumentStore, ref string, snippets []string) (*BlockMatch, error) {
	blocks, err := ds.FetchBlocks(ctx, ref)
	if err != nil {
		return nil, err
	}
	return MatchBlocks(blocks, snippets), nil
}
