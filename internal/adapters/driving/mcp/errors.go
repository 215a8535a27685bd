// Package mcp provides an MCP (Model Context Protocol) server adapter
// for Quarry. It lets AI assistants search the corpus and inspect or
// run the embedding and index-maintenance jobs under a configured
// write policy.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
