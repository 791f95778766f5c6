package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/dleads/stakeados/internal/cache"
	"github.com/dleads/stakeados/internal/model"
)

// S3Store persists articles as JSON objects in an S3-compatible bucket.
// Object layout: articles/<id>.json and versions/<article-id>/<version-id>.json.
type S3Store struct {
	client *s3.Client
	bucket string

	articleCache *cache.Cache[model.ArticleID, *model.Article]
}

func NewS3Store(accessKeyID, accessKeySecret, baseEndpoint, bucket string) *S3Store {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, accessKeySecret, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		contentLogger.Fatal().Err(err).Msg("Error initializing S3 client")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(baseEndpoint)
	})

	return &S3Store{
		client: client,
		bucket: bucket,

		articleCache: cache.NewCache[model.ArticleID, *model.Article](),
	}
}

func articleKey(id model.ArticleID) string {
	return "articles/" + string(id) + ".json"
}

func versionKey(id model.ArticleID, versionID string) string {
	return "versions/" + string(id) + "/" + versionID + ".json"
}

func (s *S3Store) GetByID(ctx context.Context, id model.ArticleID) (*model.Article, error) {
	if cached, ok := s.articleCache.Get(id); ok {
		return cloneArticle(cached), nil
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(articleKey(id)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching article %s: %w", id, err)
	}
	defer out.Body.Close()

	article, err := decodeArticle(out.Body)
	if err != nil {
		return nil, fmt.Errorf("error decoding article %s: %w", id, err)
	}

	s.articleCache.Set(id, cloneArticle(article))
	return article, nil
}

func (s *S3Store) Create(ctx context.Context, article *model.Article) (*model.Article, error) {
	stored := cloneArticle(article)
	stored.ID = model.ArticleID(uuid.New().String())
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	if err := s.putArticle(ctx, stored); err != nil {
		return nil, err
	}
	return cloneArticle(stored), nil
}

func (s *S3Store) Update(ctx context.Context, article *model.Article) (*model.Article, error) {
	if article.ID == "" {
		return nil, fmt.Errorf("update requires an article id")
	}

	existing, err := s.GetByID(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("article not found: %s", article.ID)
	}

	stored := cloneArticle(article)
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now().UTC()

	if err := s.putArticle(ctx, stored); err != nil {
		return nil, err
	}
	return cloneArticle(stored), nil
}

func (s *S3Store) CreateVersion(ctx context.Context, id model.ArticleID, changeSummary string) (*model.ArticleVersion, error) {
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

	data, err := json.Marshal(version)
	if err != nil {
		return nil, fmt.Errorf("error encoding version: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(versionKey(id, version.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("error storing version for article %s: %w", id, err)
	}

	return &version, nil
}

func (s *S3Store) ListVersions(ctx context.Context, id model.ArticleID) ([]model.ArticleVersion, error) {
	entries, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String("versions/" + string(id) + "/"),
	})
	if err != nil {
		return nil, fmt.Errorf("error listing versions for article %s: %w", id, err)
	}

	var versions []model.ArticleVersion
	for _, entry := range entries.Contents {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    entry.Key,
		})
		if err != nil {
			contentLogger.Error().Err(err).Str("key", aws.ToString(entry.Key)).Msg("Error fetching version object")
			continue
		}

		var v model.ArticleVersion
		err = json.NewDecoder(out.Body).Decode(&v)
		out.Body.Close()
		if err != nil {
			contentLogger.Error().Err(err).Str("key", aws.ToString(entry.Key)).Msg("Error decoding version object")
			continue
		}
		versions = append(versions, v)
	}

	return versions, nil
}

func (s *S3Store) putArticle(ctx context.Context, article *model.Article) error {
	data, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("error encoding article: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(articleKey(article.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("error storing article %s: %w", article.ID, err)
	}

	s.articleCache.Set(article.ID, cloneArticle(article))
	return nil
}

func decodeArticle(r io.Reader) (*model.Article, error) {
	var a model.Article
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}
