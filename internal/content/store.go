// Package content implements the article persistence stores backing the
// draft manager.
package content

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dleads/stakeados/internal/model"
)

// Store is the persistence contract the draft manager saves through.
// GetByID returns (nil, nil) when no article with the given id exists.
type Store interface {
	GetByID(ctx context.Context, id model.ArticleID) (*model.Article, error)
	Create(ctx context.Context, article *model.Article) (*model.Article, error)
	Update(ctx context.Context, article *model.Article) (*model.Article, error)

	CreateVersion(ctx context.Context, id model.ArticleID, changeSummary string) (*model.ArticleVersion, error)
	ListVersions(ctx context.Context, id model.ArticleID) ([]model.ArticleVersion, error)
}

var contentLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	contentLogger = l
}
