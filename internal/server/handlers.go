package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ironsheep/stack-autocrop/internal/autocrop"
	"github.com/ironsheep/stack-autocrop/internal/cropfile"
	"github.com/ironsheep/stack-autocrop/internal/imaging"
	"github.com/ironsheep/stack-autocrop/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "coverage_load", "coverage_autocrop").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// A solve that runs but finds no rectangle is not an execution error; it is
// reported in the result with success=false.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies per-call overrides on top of the server configuration
//  3. Loads the coverage map through the cache
//  4. Calls into the pipeline, autocrop or imaging packages
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Coverage Map Information
	case "coverage_load":
		return s.handleCoverageLoad(args)
	case "coverage_sample":
		return s.handleCoverageSample(args)

	// Crop Rectangle
	case "coverage_autocrop":
		return s.handleCoverageAutocrop(ctx, args)
	case "coverage_crop_rect":
		return s.handleCoverageCropRect(args)

	// Apply
	case "coverage_crop_apply":
		return s.handleCoverageCropApply(ctx, args)

	// Preview
	case "coverage_preview":
		return s.handleCoveragePreview(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// solveOverrides are optional per-call replacements for configuration values.
type solveOverrides struct {
	Policy      *string  `json:"policy"`
	Threshold   *float64 `json:"threshold"`
	Tolerance   *int     `json:"tolerance"`
	WarnPercent *float64 `json:"warn_percent"`
}

// runnerFor returns the session runner, or a copy configured with the
// overrides. Both share the image cache and channel crop state.
func (s *Server) runnerFor(o solveOverrides) (*pipeline.Runner, error) {
	if o == (solveOverrides{}) {
		return s.runner, nil
	}

	cfg := *s.runner.Config()
	if o.Policy != nil {
		cfg.Policy = *o.Policy
	}
	if o.Threshold != nil {
		cfg.RejectionThreshold = *o.Threshold
	}
	if o.Tolerance != nil {
		cfg.Tolerance = *o.Tolerance
	}
	if o.WarnPercent != nil {
		cfg.WarnThresholdPercent = *o.WarnPercent
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return s.runner.WithConfig(&cfg), nil
}

// accepts returns the active validity test for stats and samples.
func (s *Server) accepts() (func(float64) bool, string, error) {
	opts, err := s.runner.Config().SolveOptions()
	if err != nil {
		return nil, "", err
	}
	return opts.Policy.Accepts, opts.Policy.String(), nil
}

// === Coverage Map Information Handlers ===

type coveragePathArgs struct {
	Path string `json:"path"`
}

type coverageLoadResult struct {
	Info   *imaging.ImageInfo     `json:"info"`
	Policy string                 `json:"policy"`
	Stats  *imaging.CoverageStats `json:"stats"`
}

func (s *Server) handleCoverageLoad(args json.RawMessage) (interface{}, error) {
	var a coveragePathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}
	m, err := s.runner.CoverageMap(a.Path)
	if err != nil {
		return nil, err
	}
	accept, policy, err := s.accepts()
	if err != nil {
		return nil, err
	}
	return &coverageLoadResult{
		Info:   info,
		Policy: policy,
		Stats:  imaging.ComputeCoverageStats(m, accept),
	}, nil
}

type coverageSampleArgs struct {
	Path   string `json:"path"`
	Points []struct {
		X     int    `json:"x"`
		Y     int    `json:"y"`
		Label string `json:"label,omitempty"`
	} `json:"points"`
}

func (s *Server) handleCoverageSample(args json.RawMessage) (interface{}, error) {
	var a coverageSampleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	m, err := s.runner.CoverageMap(a.Path)
	if err != nil {
		return nil, err
	}
	accept, _, err := s.accepts()
	if err != nil {
		return nil, err
	}

	points := make([]imaging.LabeledPoint, len(a.Points))
	for i, p := range a.Points {
		points[i] = imaging.LabeledPoint{X: p.X, Y: p.Y, Label: p.Label}
	}
	return imaging.SampleCoverage(m, points, accept)
}

// === Crop Rectangle Handlers ===

type coverageAutocropArgs struct {
	solveOverrides
	Path    string `json:"path"`
	Persist bool   `json:"persist"`
	Reuse   bool   `json:"reuse"`
}

type autocropResult struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind,omitempty"`
	Error   string `json:"error,omitempty"`
	*pipeline.Rectangle
}

func (s *Server) handleCoverageAutocrop(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a coverageAutocropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	runner, err := s.runnerFor(a.solveOverrides)
	if err != nil {
		return nil, err
	}

	rect, err := runner.Rectangle(ctx, a.Path, a.Reuse, a.Persist)
	if err != nil {
		if rect == nil || rect.Solve == nil || rect.Solve.Success {
			return nil, err
		}
		return &autocropResult{
			Kind:      rect.Solve.Kind().String(),
			Error:     err.Error(),
			Rectangle: rect,
		}, nil
	}

	res := &autocropResult{Success: true, Rectangle: rect}
	if rect.Solve != nil && rect.Solve.Warning != autocrop.KindNone {
		res.Kind = rect.Solve.Warning.String()
	}
	return res, nil
}

func (s *Server) handleCoverageCropRect(args json.RawMessage) (interface{}, error) {
	var a coveragePathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}
	return cropfile.LoadFor(a.Path, info.Width, info.Height)
}

// === Apply Handlers ===

type coverageCropApplyArgs struct {
	Coverage string            `json:"coverage"`
	Channels []string          `json:"channels"`
	Margins  *autocrop.Margins `json:"margins,omitempty"`
}

type cropApplyResult struct {
	Margins  autocrop.Margins         `json:"margins"`
	Source   string                   `json:"source"`
	Channels []pipeline.ChannelOutput `json:"channels"`
}

func (s *Server) handleCoverageCropApply(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a coverageCropApplyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Channels) == 0 {
		return nil, fmt.Errorf("no channels to crop")
	}

	info, err := imaging.LoadImageInfo(s.cache, a.Coverage)
	if err != nil {
		return nil, err
	}

	res := &cropApplyResult{Source: "arguments"}
	if a.Margins != nil {
		res.Margins = *a.Margins
	} else {
		rec, err := cropfile.LoadFor(a.Coverage, info.Width, info.Height)
		if err != nil {
			return nil, err
		}
		res.Margins = rec.Margins
		res.Source = cropfile.PathFor(a.Coverage)
	}

	res.Channels, err = s.runner.CropChannels(ctx, a.Channels, res.Margins, info.Width, info.Height)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// === Preview Handlers ===

type coveragePreviewArgs struct {
	Path         string         `json:"path"`
	Rect         *cropfile.Rect `json:"rect,omitempty"`
	OutlineColor string         `json:"outline_color"`
	Scale        float64        `json:"scale"`
}

type previewResult struct {
	*imaging.PreviewResult
	Rect   cropfile.Rect `json:"rect"`
	Source string        `json:"source"`
}

func (s *Server) handleCoveragePreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a coveragePreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.OutlineColor == "" {
		a.OutlineColor = "#FF0000"
	}

	m, err := s.runner.CoverageMap(a.Path)
	if err != nil {
		return nil, err
	}

	res := &previewResult{Source: "arguments"}
	if a.Rect != nil {
		res.Rect = *a.Rect
	} else {
		rec, err := cropfile.LoadFor(a.Path, m.Width(), m.Height())
		switch {
		case err == nil:
			res.Rect = rec.Preview
			res.Source = cropfile.PathFor(a.Path)
		case errors.Is(err, os.ErrNotExist):
			rect, err := s.runner.Rectangle(ctx, a.Path, false, false)
			if err != nil {
				return nil, err
			}
			res.Rect = cropfile.RectFromBox(rect.Box)
			res.Source = "solved"
		default:
			return nil, err
		}
	}

	res.PreviewResult, err = imaging.RenderPreview(m, res.Rect.Image(), a.OutlineColor, a.Scale)
	if err != nil {
		return nil, err
	}
	return res, nil
}
