// Package server implements the MCP (Model Context Protocol) server for the
// stack autocrop tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the crop pipeline
// through the MCP protocol, so an assistant can inspect a stack's coverage
// map, find the common-area crop, look at it, and apply it to the stacked
// channels.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Coverage Map Information:
//   - coverage_load: Dimensions, bit depth and value statistics
//   - coverage_sample: Values and validity at given points
//
// Crop Rectangle:
//   - coverage_autocrop: Solve for the largest valid rectangle around the center
//   - coverage_crop_rect: Read the rectangle stored next to the map
//
// Apply:
//   - coverage_crop_apply: Crop channel images and write "<name>_cropped" files
//
// Preview:
//   - coverage_preview: Coverage map with the rectangle outlined, as PNG
//
// # Session State
//
// Coverage maps are cached by path for the lifetime of the process. The
// server also remembers which channel files it has cropped, and with which
// margins; asking to crop one again reports it as skipped instead of
// cropping the already-cropped pixels a second time.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A solve that finds no usable rectangle is a normal result with
// success=false, a kind ("center-invalid", "wiggle-limit-exceeded") and the
// diagnostic text.
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.NewWithConfig(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
