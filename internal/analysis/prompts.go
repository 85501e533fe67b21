package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/danielyudicarvalho/case-scoring/internal/blobstore"
	"github.com/danielyudicarvalho/case-scoring/internal/domain"
)

// PromptCache fetches named prompt templates from the blob store and caches
// them for the life of the process. Templates are deploy-time artifacts, so
// a missing template is a configuration problem, not a transient failure.
type PromptCache struct {
	store  blobstore.Store
	bucket string

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptCache creates a cache over the given prompt bucket.
func NewPromptCache(store blobstore.Store, bucket string) *PromptCache {
	return &PromptCache{
		store:  store,
		bucket: bucket,
		cache:  make(map[string]string),
	}
}

// Get returns the template stored under key, fetching it at most once per
// process.
func (p *PromptCache) Get(ctx context.Context, key string) (string, error) {
	p.mu.RLock()
	tpl, ok := p.cache[key]
	p.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	data, err := p.store.Get(ctx, p.bucket, key)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", fmt.Errorf("prompt template %q: %w", key, errTemplateMissing)
		}
		return "", fmt.Errorf("fetch prompt template %q: %w", key, err)
	}

	tpl = string(data)
	p.mu.Lock()
	p.cache[key] = tpl
	p.mu.Unlock()
	return tpl, nil
}

// errTemplateMissing marks an absent prompt template; classified as
// ConfigurationMissing by the invoking activity.
var errTemplateMissing = errors.New("prompt template not found")

// renderPrompt fills the fixed placeholders a template may reference from
// the case context.
func renderPrompt(template string, caseCtx domain.CaseContext) string {
	return strings.NewReplacer(
		"{extractedText}", caseCtx.ExtractedText,
		"{caseSummary}", caseCtx.CaseSummary,
		"{caseType}", caseCtx.CaseType,
	).Replace(template)
}
