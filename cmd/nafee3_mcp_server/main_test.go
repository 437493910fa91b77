package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"

	mcpE "github.com/nafee3/nafee3/mcp"
)

func TestStdioMCPServer(t *testing.T) {
	assert := assert.New(t)

	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/list"}`,
	}, "\n"))

	var out bytes.Buffer

	s := NewStdioMCPServer(in, &out)
	s.AddEndpoint(mcp.MethodPing, mcpE.PingEndpoint(nil))

	err := s.AddEndpoint(mcp.MethodPing, mcpE.PingEndpoint(nil))
	assert.Error(err)

	if err := s.Listen(context.Background()); err != nil {
		assert.Fail(err.Error())
		return
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if !assert.Len(lines, 2) {
		return
	}

	var pong map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &pong); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.EqualValues(1, pong["id"])
	assert.Contains(pong, "result")

	var notFound struct {
		ID    int `json:"id"`
		Error struct {
			Code int `json:"code"`
		} `json:"error"`
	}

	if err := json.Unmarshal([]byte(lines[1]), &notFound); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(2, notFound.ID)
	assert.Equal(mcp.METHOD_NOT_FOUND, notFound.Error.Code)
}
