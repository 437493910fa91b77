package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"

	"github.com/nafee3/nafee3"
)

type stubService struct {
	nafee3.Service

	query   nafee3.SearchQuery
	results []nafee3.SearchResult
	profile *nafee3.Profile
}

func (svc *stubService) SearchProfiles(ctx context.Context, query nafee3.SearchQuery) ([]nafee3.SearchResult, error) {
	svc.query = query
	return svc.results, nil
}

func (svc *stubService) GetProfile(ctx context.Context, id string) (*nafee3.Profile, error) {
	if svc.profile == nil || svc.profile.ProfileID != id {
		return nil, nafee3.ErrProfileNotFound
	}

	return svc.profile, nil
}

func TestUnmarshalInitializeRequest(t *testing.T) {
	assert := assert.New(t)

	input := []byte(`{
	  "jsonrpc": "2.0",
	  "id": 1,
	  "method": "initialize",
	  "params": {
	    "protocolVersion": "2024-11-05",
	    "capabilities": {
	      "roots": {
	        "listChanged": true
	      },
	      "sampling": {}
	    },
	    "clientInfo": {
	      "name": "ExampleClient",
	      "version": "1.0.0"
	    }
	  }
	}`)

	var req JSONRPCRequest
	if err := json.Unmarshal(input, &req); err != nil {
		assert.Fail(err.Error())
		return
	}

	var params mcp.InitializeParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(mcp.JSONRPC_VERSION, req.JSONRPC)
	assert.Equal(mcp.NewRequestId(int64(1)), req.ID)
	assert.Equal(mcp.MethodInitialize, req.Method)
	assert.Equal("2024-11-05", params.ProtocolVersion)
}

func TestInitializeEndpoint(t *testing.T) {
	assert := assert.New(t)

	req := JSONRPCRequest{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      mcp.NewRequestId(int64(1)),
		Method:  mcp.MethodInitialize,
		Params:  json.RawMessage(`{"protocolVersion":"2024-11-05"}`),
	}

	msg := InitializeEndpoint(&stubService{})(context.Background(), req)

	resp, ok := msg.(mcp.JSONRPCResponse)
	if !ok {
		assert.Fail("unexpected message type")
		return
	}

	result, ok := resp.Result.(*mcp.InitializeResult)
	if !ok {
		assert.Fail("unexpected result type")
		return
	}

	assert.Equal("2024-11-05", result.ProtocolVersion)
	assert.Equal("nafee3", result.ServerInfo.Name)
	assert.NotNil(result.Capabilities.Tools)
}

func TestListToolsEndpoint(t *testing.T) {
	assert := assert.New(t)

	req := JSONRPCRequest{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      mcp.NewRequestId(int64(2)),
		Method:  mcp.MethodToolsList,
	}

	msg := ListToolsEndpoint(&stubService{})(context.Background(), req)

	resp, ok := msg.(mcp.JSONRPCResponse)
	if !ok {
		assert.Fail("unexpected message type")
		return
	}

	result, ok := resp.Result.(*mcp.ListToolsResult)
	if !ok {
		assert.Fail("unexpected result type")
		return
	}

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}

	assert.ElementsMatch([]string{ToolSearchProfiles, ToolGetProfile}, names)
}

func callTool(t *testing.T, svc nafee3.Service, params string) *mcp.CallToolResult {
	req := JSONRPCRequest{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      mcp.NewRequestId(int64(3)),
		Method:  mcp.MethodToolsCall,
		Params:  json.RawMessage(params),
	}

	msg := CallToolEndpoint(svc)(context.Background(), req)

	resp, ok := msg.(mcp.JSONRPCResponse)
	if !ok {
		t.Fatalf("unexpected message type %T", msg)
	}

	result, ok := resp.Result.(*mcp.CallToolResult)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}

	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	if len(result.Content) != 1 {
		t.Fatalf("unexpected content length %d", len(result.Content))
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[0])
	}

	return text.Text
}

func TestCallToolSearchProfiles(t *testing.T) {
	assert := assert.New(t)

	svc := &stubService{
		results: []nafee3.SearchResult{
			{
				Profile: nafee3.Profile{
					ProfileID:   "p1",
					FullName:    "Amina",
					ServiceCity: "Cairo",
				},
				Similarity: 0.82,
			},
		},
	}

	result := callTool(t, svc, `{
		"name": "search_profiles",
		"arguments": {
			"query": "I need a pet sitter",
			"search_city": "Cairo",
			"top_k": 5
		}
	}`)

	assert.False(result.IsError)
	assert.Equal("I need a pet sitter", svc.query.Query)
	assert.Equal("Cairo", svc.query.SearchCity)
	assert.Equal(5, svc.query.TopK)
	assert.Nil(svc.query.SimThreshold)

	var results []nafee3.SearchResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &results); err != nil {
		assert.Fail(err.Error())
		return
	}

	if assert.Len(results, 1) {
		assert.Equal("Amina", results[0].FullName)
		assert.InDelta(0.82, results[0].Similarity, 1e-9)
	}
}

func TestCallToolSearchProfilesWithoutQuery(t *testing.T) {
	assert := assert.New(t)

	result := callTool(t, &stubService{}, `{
		"name": "search_profiles",
		"arguments": {"query": "  "}
	}`)

	assert.True(result.IsError)
}

func TestCallToolGetProfile(t *testing.T) {
	assert := assert.New(t)

	svc := &stubService{
		profile: &nafee3.Profile{
			ProfileID: "p1",
			FullName:  "Amina",
		},
	}

	result := callTool(t, svc, `{"name":"get_profile","arguments":{"profile_id":"p1"}}`)
	assert.False(result.IsError)

	var profile nafee3.Profile
	if err := json.Unmarshal([]byte(resultText(t, result)), &profile); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("Amina", profile.FullName)

	result = callTool(t, svc, `{"name":"get_profile","arguments":{"profile_id":"missing"}}`)
	assert.True(result.IsError)
	assert.Contains(resultText(t, result), nafee3.ErrProfileNotFound.Error())
}

func TestCallUnknownTool(t *testing.T) {
	assert := assert.New(t)

	req := JSONRPCRequest{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      mcp.NewRequestId(int64(4)),
		Method:  mcp.MethodToolsCall,
		Params:  json.RawMessage(`{"name":"get_weather","arguments":{}}`),
	}

	msg := CallToolEndpoint(&stubService{})(context.Background(), req)

	resp, ok := msg.(mcp.JSONRPCError)
	if !ok {
		assert.Fail("unexpected message type")
		return
	}

	assert.Equal(mcp.INVALID_PARAMS, resp.Error.Code)
}
