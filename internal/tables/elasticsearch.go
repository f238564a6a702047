package tables

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const maxIndexDocs = 10000

// ElasticsearchSource reads the lookup tables from three indices, one
// document per row.
type ElasticsearchSource struct {
	client            *elasticsearch.Client
	salesIndex        string
	seasonalIndex     string
	demographicsIndex string
}

func NewElasticsearchSource(client *elasticsearch.Client, salesIndex, seasonalIndex, demographicsIndex string) *ElasticsearchSource {
	return &ElasticsearchSource{
		client:            client,
		salesIndex:        salesIndex,
		seasonalIndex:     seasonalIndex,
		demographicsIndex: demographicsIndex,
	}
}

func (s *ElasticsearchSource) Name() string { return "elasticsearch" }

type salesDoc struct {
	Location  string `json:"location"`
	Product   string `json:"product"`
	Date      string `json:"date"`
	UnitsSold int    `json:"units_sold"`
}

func (s *ElasticsearchSource) Load(ctx context.Context) (*Tables, error) {
	var t Tables

	var sales []salesDoc
	if err := s.searchAll(ctx, s.salesIndex, &sales); err != nil {
		return nil, err
	}
	for _, d := range sales {
		date, ok := parseDate(d.Date)
		if !ok {
			continue
		}
		t.Sales = append(t.Sales, SalesRecord{
			Location:  d.Location,
			Product:   d.Product,
			Date:      date,
			UnitsSold: d.UnitsSold,
		})
	}

	if err := s.searchAll(ctx, s.seasonalIndex, &t.Seasonal); err != nil {
		return nil, err
	}
	if err := s.searchAll(ctx, s.demographicsIndex, &t.Demographics); err != nil {
		return nil, err
	}

	return &t, nil
}

// searchAll decodes the _source of every hit in index into out, which must be
// a pointer to a slice.
func (s *ElasticsearchSource) searchAll(ctx context.Context, index string, out interface{}) error {
	body := fmt.Sprintf(`{"query":{"match_all":{}},"size":%d}`, maxIndexDocs)
	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  strings.NewReader(body),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("search %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("search %s failed: %s", index, res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return fmt.Errorf("decode %s: %w", index, err)
	}

	raw := make([]json.RawMessage, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		raw = append(raw, h.Source)
	}
	joined, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(joined, out)
}
