package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"blog/app/models"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// IndexName is the name of the posts index
const IndexName = "posts"

// DefaultResultLimit caps search results when no limit is configured
const DefaultResultLimit = 10

var ErrDocumentNotFound = errors.New("document not found")

// Hit is one ranked search match
type Hit struct {
	Id    uint
	Score float64
}

// Index is the full-text index of posts
type Index struct {
	index bleve.Index
	path  string
}

// OpenIndex opens the index at path, creating it when missing. An empty
// path gives an in-memory index.
func OpenIndex(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &Index{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if err == nil {
		return &Index{index: idx, path: path}, nil
	}

	// If the path exists but bleve.Open failed, the index is corrupt or incompatible.
	if _, statErr := os.Stat(path); statErr == nil {
		return nil, fmt.Errorf("open bleve index: %w", err)
	}

	idx, err = bleve.New(path, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &Index{index: idx, path: path}, nil
}

// buildIndexMapping maps title, intro and body as english text, title also
// as a keyword, publish as a date and status as a keyword for filtering
func buildIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "en"
	docMapping := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = "en"
	textField.Store = false

	titleKeyword := bleve.NewKeywordFieldMapping()
	titleKeyword.Name = "title_keyword"
	titleKeyword.Store = false

	docMapping.AddFieldMappingsAt("title", textField, titleKeyword)
	docMapping.AddFieldMappingsAt("intro", textField)
	docMapping.AddFieldMappingsAt("body", textField)

	publishField := bleve.NewDateTimeFieldMapping()
	publishField.Store = false
	docMapping.AddFieldMappingsAt("publish", publishField)

	keywordField := bleve.NewKeywordFieldMapping()
	keywordField.Store = false
	docMapping.AddFieldMappingsAt("status", keywordField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Upsert indexes the post under its id, replacing any previous document
func (i *Index) Upsert(post *models.Post) error {
	id := DocumentID(post.Id)
	if err := i.index.Index(id, NewPostDocument(post)); err != nil {
		return fmt.Errorf("index post %s: %w", id, err)
	}
	return nil
}

// Delete removes the document of a post. It returns ErrDocumentNotFound
// when the index holds no such document.
func (i *Index) Delete(postId uint) error {
	id := DocumentID(postId)
	doc, err := i.index.Document(id)
	if err != nil {
		return fmt.Errorf("lookup post %s: %w", id, err)
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	if err := i.index.Delete(id); err != nil {
		return fmt.Errorf("remove post %s: %w", id, err)
	}
	return nil
}

// Search runs the weighted fuzzy query over published documents and returns
// the hits ordered by relevance
func (i *Index) Search(ctx context.Context, text string, limit int) ([]Hit, error) {
	q := buildQuery(text)
	if q == nil {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = DefaultResultLimit
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	results, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		id, err := parseDocumentID(hit.ID)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{Id: id, Score: hit.Score})
	}
	return hits, nil
}

// IndexPosts indexes posts in a single batch
func (i *Index) IndexPosts(posts []models.Post) error {
	batch := i.index.NewBatch()
	for idx := range posts {
		post := &posts[idx]
		if err := batch.Index(DocumentID(post.Id), NewPostDocument(post)); err != nil {
			return fmt.Errorf("batch index %d: %w", post.Id, err)
		}
	}
	return i.index.Batch(batch)
}

// Prune deletes every document whose id is not in keep and returns how many
// were removed
func (i *Index) Prune(keep map[uint]struct{}) (int, error) {
	ids, err := i.documentIDs()
	if err != nil {
		return 0, err
	}

	batch := i.index.NewBatch()
	for _, docID := range ids {
		id, err := parseDocumentID(docID)
		if err == nil {
			if _, ok := keep[id]; ok {
				continue
			}
		}
		batch.Delete(docID)
	}
	if batch.Size() == 0 {
		return 0, nil
	}
	removed := batch.Size()
	if err := i.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("prune index: %w", err)
	}
	return removed, nil
}

func (i *Index) documentIDs() ([]string, error) {
	count, err := i.index.DocCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	results, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	ids := make([]string, 0, len(results.Hits))
	for _, hit := range results.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Count returns the number of indexed documents
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

// Path is the on-disk location, empty for an in-memory index
func (i *Index) Path() string {
	return i.path
}

// Close closes the underlying index
func (i *Index) Close() error {
	return i.index.Close()
}

func parseDocumentID(id string) (uint, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}
