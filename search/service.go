package search

import (
	"context"
	"fmt"

	"github.com/pagefuse/pagefuse/element"
	"github.com/pagefuse/pagefuse/kit"
)

// Service exposes the index's operations as transport-neutral endpoints,
// shared by the HTTP and MCP surfaces.
type Service struct {
	Index *Index
}

// SearchRequest is the query operation's input.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse carries ranked results.
type SearchResponse struct {
	Results []Result `json:"results"`
	Count   int      `json:"count"`
}

// RegionRequest names the zones to filter by.
type RegionRequest struct {
	Regions []string `json:"regions"`
}

// RegionResponse carries spatially-filtered elements.
type RegionResponse struct {
	Elements []*element.Element `json:"elements"`
	Count    int                `json:"count"`
}

// ElementsResponse carries the full indexed element list.
type ElementsResponse struct {
	Elements []*element.Element `json:"elements"`
	Count    int                `json:"count"`
}

func (s *Service) searchEndpoint() kit.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		r := req.(*SearchRequest)
		results, err := s.Index.Search(ctx, r.Query)
		if err != nil {
			return nil, err
		}
		return &SearchResponse{Results: results, Count: len(results)}, nil
	}
}

func (s *Service) regionEndpoint() kit.Endpoint {
	return func(_ context.Context, req any) (any, error) {
		r := req.(*RegionRequest)
		if len(r.Regions) == 0 {
			return nil, fmt.Errorf("search: at least one region required")
		}
		regions := make([]Region, len(r.Regions))
		for i, name := range r.Regions {
			region, err := ParseRegion(name)
			if err != nil {
				return nil, err
			}
			regions[i] = region
		}
		elements := s.Index.SearchByRegion(regions...)
		return &RegionResponse{Elements: elements, Count: len(elements)}, nil
	}
}

func (s *Service) elementsEndpoint() kit.Endpoint {
	return func(context.Context, any) (any, error) {
		elements := s.Index.Elements()
		return &ElementsResponse{Elements: elements, Count: len(elements)}, nil
	}
}
