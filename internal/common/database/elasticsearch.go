package database

import (
	"context"
	"errors"
	"fmt"

	"margadarshak/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// Elasticsearch wraps the client used by the elasticsearch table source.
type Elasticsearch struct {
	Client *elasticsearch.Client
}

// OpenElasticsearch builds the client and pings the cluster.
func OpenElasticsearch(ctx context.Context, cfg config.ElasticsearchConfig) (*Elasticsearch, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("elasticsearch: no addresses configured")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	e := &Elasticsearch{Client: es}
	if err := e.Ping(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Elasticsearch) Ping(ctx context.Context) error {
	res, err := e.Client.Ping(e.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return nil
}
