package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"

	mcpE "github.com/nafee3/nafee3/mcp"
)

func MCPStreamableHandler(endpoints map[mcp.MCPMethod]mcpE.MCPEndpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req mcpE.JSONRPCRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(err)
			c.Abort()

			resp := mcp.JSONRPCError{
				JSONRPC: mcp.JSONRPC_VERSION,
				ID:      req.ID,
				Error: struct {
					Code    int    `json:"code"`
					Message string `json:"message"`
					Data    any    `json:"data,omitempty"`
				}{
					Code:    mcp.PARSE_ERROR,
					Message: err.Error(),
				},
			}
			c.JSON(http.StatusBadRequest, &resp)
			return
		}

		// Notifications carry no id and get no response body.
		if req.ID.IsNil() {
			c.Status(http.StatusAccepted)
			return
		}

		endpoint, ok := endpoints[req.Method]
		if !ok {
			err := errors.New("endpoint not found")
			c.Error(err)
			c.Abort()

			resp := mcpE.MethodNotFound(req.ID)
			c.JSON(http.StatusNotFound, &resp)
			return
		}

		ctx := c.Request.Context()
		resp := endpoint(ctx, req)

		c.JSON(http.StatusOK, &resp)
	}
}
