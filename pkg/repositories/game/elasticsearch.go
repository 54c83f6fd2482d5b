package game

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/fadedpez/scoreboard/internal/logging"
	"github.com/fadedpez/scoreboard/pkg/entities"
)

// ElasticsearchConfig holds configuration options for the indexing repository
type ElasticsearchConfig struct {
	URL      string
	Username string
	Password string
	Index    string
}

// DefaultElasticsearchConfig returns a default configuration for Elasticsearch
func DefaultElasticsearchConfig() *ElasticsearchConfig {
	return &ElasticsearchConfig{
		URL:   "http://localhost:9200",
		Index: "scoreboard_games",
	}
}

// IndexingRepository decorates a base Repository and mirrors accepted games
// into Elasticsearch. The base repository stays the source of truth: indexing
// failures are logged and never fail a save.
type IndexingRepository struct {
	Repository
	client *elasticsearch.Client
	index  string
	logger *logging.Logger
}

// NewIndexingRepository creates the decorator and ensures the index exists
func NewIndexingRepository(ctx context.Context, base Repository, config *ElasticsearchConfig, logger *logging.Logger) (*IndexingRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{config.URL},
	}

	// Add authentication if provided
	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = logging.Discard
	}

	repo := &IndexingRepository{
		Repository: base,
		client:     client,
		index:      config.Index,
		logger:     logger.Named("elasticsearch"),
	}
	if repo.index == "" {
		repo.index = DefaultElasticsearchConfig().Index
	}

	if err := repo.initIndex(ctx); err != nil {
		return nil, fmt.Errorf("error initializing index: %w", err)
	}

	return repo, nil
}

// initIndex creates the game index if it doesn't exist
func (r *IndexingRepository) initIndex(ctx context.Context) error {
	res, err := r.client.Indices.Exists([]string{r.index}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error checking if game index exists: %w", err)
	}
	res.Body.Close()

	if res.StatusCode != http.StatusNotFound {
		return nil
	}

	req := esapi.IndicesCreateRequest{
		Index: r.index,
		Body:  bytes.NewReader([]byte(esGameMapping)),
	}

	res, err = req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("error creating game index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating game index: %s", res.String())
	}

	r.logger.Info("Created index %s", r.index)
	return nil
}

// SaveGame saves through the base repository, then indexes the game if it
// is accepted and accessible, or removes it from the index otherwise
func (r *IndexingRepository) SaveGame(ctx context.Context, game *entities.Game, audit Audit) error {
	if err := r.Repository.SaveGame(ctx, game, audit); err != nil {
		return err
	}

	var err error
	if game.State == entities.StateAccepted && game.Accessible {
		err = r.IndexGame(ctx, game)
	} else {
		err = r.RemoveGame(ctx, game.ID)
	}
	if err != nil {
		r.logger.Warn("Indexing game %s failed: %v", game.ID, err)
	}

	return nil
}

// IndexGame writes the game document, replacing any earlier version
func (r *IndexingRepository) IndexGame(ctx context.Context, game *entities.Game) error {
	jsonData, err := json.Marshal(toESGame(game))
	if err != nil {
		return fmt.Errorf("error marshaling game: %w", err)
	}

	res, err := r.client.Index(
		r.index,
		bytes.NewReader(jsonData),
		r.client.Index.WithDocumentID(game.ID),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("error indexing game: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing game: %s", res.String())
	}

	return nil
}

// RemoveGame deletes the game document; a missing document is not an error
func (r *IndexingRepository) RemoveGame(ctx context.Context, gameID string) error {
	res, err := r.client.Delete(
		r.index,
		gameID,
		r.client.Delete.WithContext(ctx),
		r.client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("error removing game: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("error removing game: %s", res.String())
	}

	return nil
}
