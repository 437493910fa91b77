package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nafee3/nafee3"
)

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      mcp.RequestId   `json:"id"`
	Method  mcp.MCPMethod   `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func errorResponse(id mcp.RequestId, code int, message string) mcp.JSONRPCError {
	return mcp.JSONRPCError{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Error: struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Data    any    `json:"data,omitempty"`
		}{
			Code:    code,
			Message: message,
		},
	}
}

// MethodNotFound answers a request whose method has no endpoint.
func MethodNotFound(id mcp.RequestId) mcp.JSONRPCError {
	return errorResponse(id, mcp.METHOD_NOT_FOUND, "method not found")
}

type MCPEndpoint func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage

func MakeEndpoints(svc nafee3.Service) map[mcp.MCPMethod]MCPEndpoint {
	return map[mcp.MCPMethod]MCPEndpoint{
		mcp.MethodInitialize: InitializeEndpoint(svc),
		mcp.MethodPing:       PingEndpoint(svc),
		mcp.MethodToolsList:  ListToolsEndpoint(svc),
		mcp.MethodToolsCall:  CallToolEndpoint(svc),
	}
}

const MCPSERVER_INSTRUCTIONS string = `Nafee3 stores service provider profiles and finds them by meaning.

Available tools:
- search_profiles: find providers whose service description matches a natural language request, optionally restricted to a city or area
- get_profile: fetch one provider profile by its profile_id

Search results carry a similarity score between -1 and 1, best match first.`

const (
	ToolSearchProfiles = "search_profiles"
	ToolGetProfile     = "get_profile"
)

var Tools = []mcp.Tool{
	mcp.NewTool(ToolSearchProfiles,
		mcp.WithDescription("Semantic search over service provider profiles by their service description."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What the user is looking for, in any language."),
		),
		mcp.WithString("search_city",
			mcp.Description("Only return providers serving this city."),
		),
		mcp.WithString("search_area",
			mcp.Description("Only return providers serving this area."),
		),
		mcp.WithNumber("sim_threshold",
			mcp.Description("Minimum similarity score, default 0.1."),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Maximum number of results, default 50."),
		),
	),
	mcp.NewTool(ToolGetProfile,
		mcp.WithDescription("Fetch a service provider profile by id."),
		mcp.WithString("profile_id",
			mcp.Required(),
			mcp.Description("The profile id returned by search_profiles."),
		),
	),
}

func InitializeEndpoint(svc nafee3.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.InitializeParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		protocolVersion := mcp.LATEST_PROTOCOL_VERSION
		if clientVersion := params.ProtocolVersion; clientVersion != "" {
			if slices.Contains(mcp.ValidProtocolVersions, clientVersion) {
				protocolVersion = clientVersion
			}
		}

		result := &mcp.InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: mcp.ServerCapabilities{
				Tools: &struct {
					ListChanged bool `json:"listChanged,omitempty"`
				}{},
			},
			ServerInfo: mcp.Implementation{
				Name:    "nafee3",
				Version: "1.0.0",
			},
			Instructions: MCPSERVER_INSTRUCTIONS,
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func PingEndpoint(svc nafee3.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  struct{}{}, // empty response
		}
	}
}

func ListToolsEndpoint(svc nafee3.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		result := &mcp.ListToolsResult{
			Tools: Tools,
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

func CallToolEndpoint(svc nafee3.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params callToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		var result *mcp.CallToolResult
		switch params.Name {
		case ToolSearchProfiles:
			result = searchProfiles(ctx, svc, params.Arguments)

		case ToolGetProfile:
			result = getProfile(ctx, svc, params.Arguments)

		default:
			msg := fmt.Sprintf("tool not found: %s", params.Name)
			return errorResponse(req.ID, mcp.INVALID_PARAMS, msg)
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func decodeArguments(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("arguments are required")
	}

	return json.Unmarshal(raw, v)
}

func textResult(v any) *mcp.CallToolResult {
	bs, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}

	return mcp.NewToolResultText(string(bs))
}

func searchProfiles(ctx context.Context, svc nafee3.Service, raw json.RawMessage) *mcp.CallToolResult {
	var query nafee3.SearchQuery
	if err := decodeArguments(raw, &query); err != nil {
		return mcp.NewToolResultError(err.Error())
	}

	if strings.TrimSpace(query.Query) == "" {
		return mcp.NewToolResultError("query is required")
	}

	results, err := svc.SearchProfiles(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}

	return textResult(results)
}

func getProfile(ctx context.Context, svc nafee3.Service, raw json.RawMessage) *mcp.CallToolResult {
	var args struct {
		ProfileID string `json:"profile_id"`
	}

	if err := decodeArguments(raw, &args); err != nil {
		return mcp.NewToolResultError(err.Error())
	}

	if args.ProfileID == "" {
		return mcp.NewToolResultError("profile_id is required")
	}

	profile, err := svc.GetProfile(ctx, args.ProfileID)
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}

	return textResult(profile)
}
