package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dleads/stakeados/internal/db"
	"github.com/dleads/stakeados/internal/model"
	"github.com/dleads/stakeados/internal/util/compression"
)

// SQLiteStore persists articles in the application database. Localized
// fields are stored as zstd-compressed JSON blobs; list fields as JSON text.
type SQLiteStore struct {
	db         db.DB
	compressor compression.Compressor
}

func NewSQLiteStore(database db.DB) *SQLiteStore {
	return &SQLiteStore{
		db:         database,
		compressor: compression.ZstdCompressor{},
	}
}

func (s *SQLiteStore) GetByID(ctx context.Context, id model.ArticleID) (*model.Article, error) {
	row := s.db.Get().QueryRowContext(ctx, `
		SELECT id, title, content, meta_description, category, tags, difficulty,
		       featured_image, related_courses, status, author_id, created_at, updated_at
		FROM articles WHERE id = ?`, string(id))

	article, err := s.scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading article %s: %w", id, err)
	}
	return article, nil
}

func (s *SQLiteStore) Create(ctx context.Context, article *model.Article) (*model.Article, error) {
	stored := cloneArticle(article)
	stored.ID = model.ArticleID(uuid.New().String())
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	title, content, meta, err := s.packLocalized(stored)
	if err != nil {
		return nil, err
	}
	tags, courses, err := packLists(stored)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Get().ExecContext(ctx, `
		INSERT INTO articles (id, title, content, meta_description, category, tags,
		                      difficulty, featured_image, related_courses, status,
		                      author_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(stored.ID), title, content, meta, stored.Category, tags,
		string(stored.Difficulty), stored.FeaturedImage, courses, string(stored.Status),
		string(stored.Author), stored.CreatedAt, stored.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error inserting article: %w", err)
	}

	contentLogger.Info().Str("article_id", string(stored.ID)).Msg("Article created")
	return stored, nil
}

func (s *SQLiteStore) Update(ctx context.Context, article *model.Article) (*model.Article, error) {
	if article.ID == "" {
		return nil, fmt.Errorf("update requires an article id")
	}

	stored := cloneArticle(article)
	stored.UpdatedAt = time.Now().UTC()

	title, content, meta, err := s.packLocalized(stored)
	if err != nil {
		return nil, err
	}
	tags, courses, err := packLists(stored)
	if err != nil {
		return nil, err
	}

	res, err := s.db.Get().ExecContext(ctx, `
		UPDATE articles
		SET title = ?, content = ?, meta_description = ?, category = ?, tags = ?,
		    difficulty = ?, featured_image = ?, related_courses = ?, status = ?,
		    updated_at = ?
		WHERE id = ?`,
		title, content, meta, stored.Category, tags,
		string(stored.Difficulty), stored.FeaturedImage, courses, string(stored.Status),
		stored.UpdatedAt, string(stored.ID))
	if err != nil {
		return nil, fmt.Errorf("error updating article %s: %w", stored.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("article not found: %s", stored.ID)
	}

	return stored, nil
}

func (s *SQLiteStore) CreateVersion(ctx context.Context, id model.ArticleID, changeSummary string) (*model.ArticleVersion, error) {
	article, err := s.GetByID(ctx, id)
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

	_, err = s.db.Get().ExecContext(ctx, `
		INSERT INTO article_versions (id, article_id, change_summary, snapshot_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		version.ID, string(version.ArticleID), version.ChangeSummary,
		version.SnapshotHash, version.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error inserting version for article %s: %w", id, err)
	}

	return &version, nil
}

func (s *SQLiteStore) ListVersions(ctx context.Context, id model.ArticleID) ([]model.ArticleVersion, error) {
	rows, err := s.db.Get().QueryContext(ctx, `
		SELECT id, article_id, change_summary, snapshot_hash, created_at
		FROM article_versions WHERE article_id = ?
		ORDER BY created_at DESC`, string(id))
	if err != nil {
		return nil, fmt.Errorf("error querying versions for article %s: %w", id, err)
	}
	defer rows.Close()

	var versions []model.ArticleVersion
	for rows.Next() {
		var v model.ArticleVersion
		if err := rows.Scan(&v.ID, &v.ArticleID, &v.ChangeSummary, &v.SnapshotHash, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

type articleRow interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanArticle(row articleRow) (*model.Article, error) {
	var a model.Article
	var title, content, meta []byte
	var tags, courses string

	err := row.Scan(&a.ID, &title, &content, &meta, &a.Category, &tags, &a.Difficulty,
		&a.FeaturedImage, &courses, &a.Status, &a.Author, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if a.Title, err = s.unpackLocalized(title); err != nil {
		return nil, err
	}
	if a.Content, err = s.unpackLocalized(content); err != nil {
		return nil, err
	}
	if a.MetaDescription, err = s.unpackLocalized(meta); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return nil, fmt.Errorf("error decoding tags: %w", err)
	}
	if err := json.Unmarshal([]byte(courses), &a.RelatedCourses); err != nil {
		return nil, fmt.Errorf("error decoding related courses: %w", err)
	}
	return &a, nil
}

func (s *SQLiteStore) packLocalized(a *model.Article) (title, content, meta []byte, err error) {
	if title, err = s.compressLocalized(a.Title); err != nil {
		return nil, nil, nil, err
	}
	if content, err = s.compressLocalized(a.Content); err != nil {
		return nil, nil, nil, err
	}
	if meta, err = s.compressLocalized(a.MetaDescription); err != nil {
		return nil, nil, nil, err
	}
	return title, content, meta, nil
}

func (s *SQLiteStore) compressLocalized(lt model.LocalizedText) ([]byte, error) {
	data, err := json.Marshal(lt)
	if err != nil {
		return nil, fmt.Errorf("error encoding localized text: %w", err)
	}
	return s.compressor.Compress(data)
}

func (s *SQLiteStore) unpackLocalized(blob []byte) (model.LocalizedText, error) {
	if len(blob) == 0 {
		return model.LocalizedText{}, nil
	}
	data, err := s.compressor.Decompress(blob)
	if err != nil {
		return nil, fmt.Errorf("error decompressing localized text: %w", err)
	}
	var lt model.LocalizedText
	if err := json.Unmarshal(data, &lt); err != nil {
		return nil, fmt.Errorf("error decoding localized text: %w", err)
	}
	return lt, nil
}

func packLists(a *model.Article) (tags, courses string, err error) {
	t, err := json.Marshal(a.Tags)
	if err != nil {
		return "", "", fmt.Errorf("error encoding tags: %w", err)
	}
	c, err := json.Marshal(a.RelatedCourses)
	if err != nil {
		return "", "", fmt.Errorf("error encoding related courses: %w", err)
	}
	return string(t), string(c), nil
}
