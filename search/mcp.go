package search

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pagefuse/pagefuse/kit"
)

// RegisterMCP registers the search tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerSearchTool(srv)
	s.registerRegionTool(srv)
	s.registerElementsTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	sc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		sc["required"] = required
	}
	return sc
}

func (s *Service) registerSearchTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "page_search",
		Description: "Search the fused page elements semantically and return the top-ranked matches with scores.",
		InputSchema: inputSchema(map[string]any{
			"query": map[string]any{"type": "string", "description": "Natural-language query"},
		}, []string{"query"}),
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r SearchRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.searchEndpoint(), decode)
}

func (s *Service) registerRegionTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "page_region",
		Description: "List page elements inside named zones (top, bottom, left, right, center, or a corner), sorted top to bottom.",
		InputSchema: inputSchema(map[string]any{
			"regions": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Zone names; bands intersect, corners override",
			},
		}, []string{"regions"}),
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r RegionRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.regionEndpoint(), decode)
}

func (s *Service) registerElementsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "page_elements",
		Description: "Return the full fused element list for the current page snapshot.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.elementsEndpoint(), decode)
}
