package content

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dleads/stakeados/internal/model"
	"github.com/dleads/stakeados/internal/util"
)

// MemoryStore keeps articles in process memory. It backs tests and the
// live editor's scratch sessions.
type MemoryStore struct {
	articles sync.Map // model.ArticleID -> *model.Article

	mu       sync.Mutex
	versions map[model.ArticleID][]model.ArticleVersion
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		versions: make(map[model.ArticleID][]model.ArticleVersion),
	}
}

func (m *MemoryStore) GetByID(_ context.Context, id model.ArticleID) (*model.Article, error) {
	if v, ok := m.articles.Load(id); ok {
		article := cloneArticle(v.(*model.Article))
		return article, nil
	}
	return nil, nil
}

func (m *MemoryStore) Create(_ context.Context, article *model.Article) (*model.Article, error) {
	stored := cloneArticle(article)
	stored.ID = model.ArticleID(uuid.New().String())
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	m.articles.Store(stored.ID, stored)
	return cloneArticle(stored), nil
}

func (m *MemoryStore) Update(_ context.Context, article *model.Article) (*model.Article, error) {
	if article.ID == "" {
		return nil, fmt.Errorf("update requires an article id")
	}

	existing, ok := m.articles.Load(article.ID)
	if !ok {
		return nil, fmt.Errorf("article not found: %s", article.ID)
	}

	stored := cloneArticle(article)
	stored.CreatedAt = existing.(*model.Article).CreatedAt
	stored.UpdatedAt = time.Now().UTC()

	m.articles.Store(stored.ID, stored)
	return cloneArticle(stored), nil
}

func (m *MemoryStore) CreateVersion(ctx context.Context, id model.ArticleID, changeSummary string) (*model.ArticleVersion, error) {
	article, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, fmt.Errorf("article not found: %s", id)
	}

	version := model.ArticleVersion{
		ID:            uuid.New().String(),
		ArticleID:     id,
		ChangeSummary: changeSummary,
		SnapshotHash:  articleSnapshotHash(article),
		CreatedAt:     time.Now().UTC(),
	}

	m.mu.Lock()
	m.versions[id] = append(m.versions[id], version)
	m.mu.Unlock()

	return &version, nil
}

func (m *MemoryStore) ListVersions(_ context.Context, id model.ArticleID) ([]model.ArticleVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := append([]model.ArticleVersion(nil), m.versions[id]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func cloneArticle(a *model.Article) *model.Article {
	out := *a
	out.Title = a.Title.Clone()
	out.Content = a.Content.Clone()
	out.MetaDescription = a.MetaDescription.Clone()
	out.Tags = model.CloneStrings(a.Tags)
	out.RelatedCourses = model.CloneStrings(a.RelatedCourses)
	return &out
}

func articleSnapshotHash(a *model.Article) string {
	return util.ContentHashString(fmt.Sprintf("%s|%v|%v|%s|%v|%s",
		a.ID, a.Title, a.Content, a.Category, a.Tags, a.Status))
}
