package pathstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dgallion1/docsection/internal/doctree"
)

// Key layout:
//
//	docsection/documents/{docID}/meta
//	docsection/documents/{docID}/tree
//	docsection/documents/{docID}/chunks/{index}
//	docsection/by_hash/{contentHash}/{docID}
const (
	documentsRoot = "docsection/documents"
	hashRoot      = "docsection/by_hash"
)

func DocumentKey(docID string) string { return documentsRoot + "/" + docID }

func ChunkKey(docID string, index int) string {
	return fmt.Sprintf("%s/chunks/%05d", DocumentKey(docID), index)
}

func hashKey(hash, docID string) string { return hashRoot + "/" + hash + "/" + docID }

func source(docID string) string { return "docsection:" + docID }

// DocumentMeta summarizes a published document.
type DocumentMeta struct {
	DocID        string    `json:"doc_id"`
	Filename     string    `json:"filename"`
	Title        string    `json:"title"`
	ContentHash  string    `json:"content_hash"`
	Sections     int       `json:"sections"`
	Orphans      int       `json:"orphans"`
	TotalChunks  int       `json:"total_chunks"`
	ChunksStored int       `json:"chunks_stored"`
	CreatedAt    time.Time `json:"created_at"`
}

// PutTree stores the sectioned tree of a document.
func (c *Client) PutTree(ctx context.Context, docID string, tree *doctree.DocTree) error {
	return c.Retry(ctx, func() error {
		return c.PutNode(ctx, DocumentKey(docID)+"/tree", NodeRequest{
			Value:      tree,
			MemoryType: "semantic",
			Salience:   0.3,
			Source:     source(docID),
		})
	})
}

// PutChunk stores one chunk and links it to its predecessor.
func (c *Client) PutChunk(ctx context.Context, docID string, chunk doctree.Chunk) error {
	key := ChunkKey(docID, chunk.Index)
	err := c.Retry(ctx, func() error {
		return c.PutNode(ctx, key, NodeRequest{
			Value:      chunk,
			MemoryType: "semantic",
			Salience:   0.5,
			Source:     source(docID),
		})
	})
	if err != nil || chunk.Index == 0 {
		return err
	}
	return c.Retry(ctx, func() error {
		return c.PutLink(ctx, LinkRequest{
			From:    ChunkKey(docID, chunk.Index-1),
			To:      key,
			Weight:  1,
			Summary: "next",
		})
	})
}

// PutMeta writes the document metadata and its content hash index entry.
func (c *Client) PutMeta(ctx context.Context, meta DocumentMeta) error {
	err := c.Retry(ctx, func() error {
		return c.PutNode(ctx, DocumentKey(meta.DocID)+"/meta", NodeRequest{
			Value:      meta,
			MemoryType: "metacognitive",
			Salience:   0.5,
			Source:     source(meta.DocID),
		})
	})
	if err != nil {
		return fmt.Errorf("meta: %w", err)
	}
	if meta.ContentHash == "" {
		return nil
	}
	err = c.Retry(ctx, func() error {
		return c.PutNode(ctx, hashKey(meta.ContentHash, meta.DocID), NodeRequest{
			Value: map[string]any{
				"filename":   meta.Filename,
				"created_at": meta.CreatedAt.Format(time.RFC3339),
			},
			MemoryType: "metacognitive",
			Salience:   0.1,
			Source:     source(meta.DocID),
		})
	})
	if err != nil {
		return fmt.Errorf("hash index: %w", err)
	}
	return nil
}

// FindByHash returns the doc ID already stored for a content hash, if any.
func (c *Client) FindByHash(ctx context.Context, hash string) (string, bool, error) {
	children, err := c.ListChildren(ctx, hashRoot+"/"+hash, 1)
	if err != nil {
		return "", false, err
	}
	if len(children) == 0 {
		return "", false, nil
	}
	return lastSegment(children[0].Key), true, nil
}

// ListDocuments returns the meta node of every published document.
func (c *Client) ListDocuments(ctx context.Context, limit int) ([]ListChildrenResponse, error) {
	children, err := c.ListChildren(ctx, documentsRoot, limit)
	if err != nil {
		return nil, err
	}
	var docs []ListChildrenResponse
	for _, child := range children {
		if lastSegment(child.Key) == "meta" {
			docs = append(docs, child)
		}
	}
	return docs, nil
}

// ErrDocumentNotFound is returned when deleting a document with no meta.
var ErrDocumentNotFound = errors.New("document not found")

// DeleteDocument removes a document subtree and its hash index entry.
func (c *Client) DeleteDocument(ctx context.Context, docID string) error {
	meta, err := c.GetNode(ctx, DocumentKey(docID)+"/meta")
	if err != nil {
		return err
	}
	if meta == nil {
		return ErrDocumentNotFound
	}
	if err := c.DeleteNode(ctx, DocumentKey(docID), true); err != nil {
		return err
	}
	if m, ok := meta.Value.(map[string]any); ok {
		if hash, _ := m["content_hash"].(string); hash != "" {
			if err := c.DeleteNode(ctx, hashKey(hash, docID), false); err != nil {
				return fmt.Errorf("hash index: %w", err)
			}
		}
	}
	return nil
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Slugify converts a string to a key-safe segment.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}

// lastSegment returns the final component of a key. Keys come back from
// pathstore with either "/" or "." separators.
func lastSegment(key string) string {
	if i := strings.LastIndexAny(key, "/."); i >= 0 {
		return key[i+1:]
	}
	return key
}
