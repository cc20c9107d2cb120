package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/stack-autocrop/internal/cropfile"
)

// createCoverageFile writes a 16-bit coverage map with an uncovered band of
// the given width on every side and returns its path.
func createCoverageFile(t *testing.T, dir string, width, height, border int) string {
	t.Helper()

	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x >= border && y >= border && x < width-border && y < height-border {
				img.SetGray16(x, y, color.Gray16{Y: 0xffff})
			}
		}
	}
	return writePNG(t, filepath.Join(dir, "coverage.png"), img)
}

// createTestImageFile creates a solid-color channel image and returns its path
func createTestImageFile(t *testing.T, dir, name string, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writePNG(t, filepath.Join(dir, name), img)
}

func writePNG(t *testing.T, path string, img image.Image) string {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool sends a tools/call request through handleRequest.
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	}

	resp := s.handleRequest(context.Background(), req)
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeToolResult unpacks the JSON text of a successful tool response.
func decodeToolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v (%v)", resp.Error.Message, resp.Error.Data)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) == 0 {
		t.Fatal("Result should have content array")
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	text, ok := content[0]["text"].(string)
	if !ok {
		t.Fatal("content text should be a string")
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode tool result: %v\n%s", err, text)
	}
}

func TestHandleToolsCall_CoverageLoad(t *testing.T) {
	s := New()
	path := createCoverageFile(t, t.TempDir(), 20, 10, 1)

	resp := callTool(t, s, "coverage_load", map[string]interface{}{"path": path})

	var result struct {
		Info struct {
			Width    int    `json:"width"`
			Height   int    `json:"height"`
			Format   string `json:"format"`
			BitDepth int    `json:"bit_depth"`
		} `json:"info"`
		Policy string `json:"policy"`
		Stats  struct {
			ValidPixels int `json:"valid_pixels"`
			TotalPixels int `json:"total_pixels"`
		} `json:"stats"`
	}
	decodeToolResult(t, resp, &result)

	if result.Info.Width != 20 || result.Info.Height != 10 {
		t.Errorf("dimensions: got %dx%d, want 20x10", result.Info.Width, result.Info.Height)
	}
	if result.Info.Format != "png" {
		t.Errorf("format: got %s, want png", result.Info.Format)
	}
	if result.Policy != "coverage>0" {
		t.Errorf("policy: got %s, want coverage>0", result.Policy)
	}
	if result.Stats.TotalPixels != 200 {
		t.Errorf("total pixels: got %d, want 200", result.Stats.TotalPixels)
	}
	// 18x8 interior is covered
	if result.Stats.ValidPixels != 144 {
		t.Errorf("valid pixels: got %d, want 144", result.Stats.ValidPixels)
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := New()

	resp := callTool(t, s, "coverage_load", map[string]interface{}{"path": "/nonexistent/path/image.png"})

	if resp.Error == nil {
		t.Fatal("Expected error for non-existent file")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
	if resp.Error.Message != "Tool execution failed" {
		t.Errorf("Message: got %s, want 'Tool execution failed'", resp.Error.Message)
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := New()

	resp := callTool(t, s, "image_ocr_full", map[string]interface{}{})

	if resp.Error == nil {
		t.Fatal("Expected error for unknown tool")
	}
	if !strings.Contains(resp.Error.Data.(string), "unknown tool") {
		t.Errorf("Error data: got %v", resp.Error.Data)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New()
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	}

	resp := s.handleRequest(context.Background(), req)

	if resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

func TestHandleToolsCall_CoverageSample(t *testing.T) {
	s := New()
	path := createCoverageFile(t, t.TempDir(), 20, 20, 2)

	resp := callTool(t, s, "coverage_sample", map[string]interface{}{
		"path": path,
		"points": []map[string]interface{}{
			{"x": 0, "y": 0, "label": "corner"},
			{"x": 10, "y": 10, "label": "center"},
		},
	})

	var result struct {
		Samples []struct {
			Label string  `json:"label"`
			Value float64 `json:"value"`
			Valid bool    `json:"valid"`
		} `json:"samples"`
	}
	decodeToolResult(t, resp, &result)

	if len(result.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(result.Samples))
	}
	if result.Samples[0].Valid || !result.Samples[1].Valid {
		t.Errorf("validity: got corner=%v center=%v, want false/true", result.Samples[0].Valid, result.Samples[1].Valid)
	}
}

type autocropResponse struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind"`
	Error   string `json:"error"`
	Box     struct {
		Left, Right, Top, Bottom int
	} `json:"box"`
	Margins struct {
		Left, Top, Right, Bottom int
	} `json:"margins"`
	Reused  bool   `json:"reused"`
	Sidecar string `json:"sidecar"`
	Solve   *struct {
		Success     bool   `json:"success"`
		Diagnostics string `json:"diagnostics"`
	} `json:"solve"`
}

func TestHandleToolsCall_CoverageAutocrop(t *testing.T) {
	s := New()
	path := createCoverageFile(t, t.TempDir(), 100, 80, 6)

	resp := callTool(t, s, "coverage_autocrop", map[string]interface{}{
		"path":    path,
		"persist": true,
	})

	var result autocropResponse
	decodeToolResult(t, resp, &result)

	if !result.Success {
		t.Fatalf("autocrop failed: %s", result.Error)
	}
	if result.Margins.Left != 6 || result.Margins.Top != 6 || result.Margins.Right != 6 || result.Margins.Bottom != 6 {
		t.Errorf("margins: got %+v, want 6 on every side", result.Margins)
	}
	if result.Box.Left != 6 || result.Box.Right != 93 || result.Box.Top != 6 || result.Box.Bottom != 73 {
		t.Errorf("box: got %+v", result.Box)
	}
	if result.Sidecar != cropfile.PathFor(path) {
		t.Errorf("sidecar: got %s, want %s", result.Sidecar, cropfile.PathFor(path))
	}
	if _, err := os.Stat(result.Sidecar); err != nil {
		t.Errorf("sidecar not written: %v", err)
	}
	if result.Solve == nil || !result.Solve.Success {
		t.Error("solve details missing")
	}
}

func TestHandleToolsCall_CoverageAutocrop_Failure(t *testing.T) {
	s := New()
	dir := t.TempDir()
	path := writePNG(t, filepath.Join(dir, "empty.png"), image.NewGray16(image.Rect(0, 0, 30, 30)))

	resp := callTool(t, s, "coverage_autocrop", map[string]interface{}{"path": path})

	var result autocropResponse
	decodeToolResult(t, resp, &result)

	if result.Success {
		t.Fatal("autocrop should fail on an uncovered map")
	}
	if result.Kind != "center-invalid" {
		t.Errorf("kind: got %s, want center-invalid", result.Kind)
	}
	if result.Error == "" {
		t.Error("error text should be set")
	}
}

func TestHandleToolsCall_CoverageAutocrop_Overrides(t *testing.T) {
	s := New()
	path := createCoverageFile(t, t.TempDir(), 40, 40, 2)

	// Invert the map's meaning: under a rejection limit of 0, the zero band
	// is valid and the covered interior is not.
	resp := callTool(t, s, "coverage_autocrop", map[string]interface{}{
		"path":      path,
		"policy":    "rejection",
		"threshold": 0,
	})
	var result autocropResponse
	decodeToolResult(t, resp, &result)
	if result.Success {
		t.Error("autocrop with rejection policy should fail at the center")
	}

	resp = callTool(t, s, "coverage_autocrop", map[string]interface{}{
		"path":   path,
		"policy": "median",
	})
	if resp.Error == nil {
		t.Error("Expected error for unknown policy override")
	}

	// Overrides do not leak into the session configuration
	if s.runner.Config().Policy != "coverage" {
		t.Errorf("session policy changed to %s", s.runner.Config().Policy)
	}
}

func TestHandleToolsCall_CoverageCropRect(t *testing.T) {
	s := New()
	path := createCoverageFile(t, t.TempDir(), 50, 50, 3)

	resp := callTool(t, s, "coverage_crop_rect", map[string]interface{}{"path": path})
	if resp.Error == nil {
		t.Fatal("Expected error when no rectangle is stored")
	}

	callTool(t, s, "coverage_autocrop", map[string]interface{}{"path": path, "persist": true})

	resp = callTool(t, s, "coverage_crop_rect", map[string]interface{}{"path": path})
	var rec cropfile.Record
	decodeToolResult(t, resp, &rec)
	if rec.ID == "" {
		t.Error("record ID should be set")
	}
	if rec.Margins.Left != 3 || rec.Margins.Bottom != 3 {
		t.Errorf("margins: got %+v", rec.Margins)
	}
}

type cropApplyResponse struct {
	Source   string `json:"source"`
	Channels []struct {
		Name    string `json:"name"`
		Output  string `json:"output"`
		Width   int    `json:"width"`
		Height  int    `json:"height"`
		Skipped bool   `json:"skipped"`
	} `json:"channels"`
}

func TestHandleToolsCall_CoverageCropApply(t *testing.T) {
	s := New()
	dir := t.TempDir()
	coverage := createCoverageFile(t, dir, 60, 40, 4)
	red := createTestImageFile(t, dir, "R.png", 60, 40, color.RGBA{255, 0, 0, 255})
	green := createTestImageFile(t, dir, "G.png", 60, 40, color.RGBA{0, 255, 0, 255})

	resp := callTool(t, s, "coverage_crop_apply", map[string]interface{}{
		"coverage": coverage,
		"channels": []string{red, green},
		"margins":  map[string]int{"left": 4, "top": 2, "right": 6, "bottom": 8},
	})

	var result cropApplyResponse
	decodeToolResult(t, resp, &result)

	if result.Source != "arguments" {
		t.Errorf("source: got %s, want arguments", result.Source)
	}
	if len(result.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(result.Channels))
	}
	for _, ch := range result.Channels {
		if ch.Width != 50 || ch.Height != 30 {
			t.Errorf("%s: got %dx%d, want 50x30", ch.Name, ch.Width, ch.Height)
		}
		if _, err := os.Stat(ch.Output); err != nil {
			t.Errorf("%s: output not written: %v", ch.Name, err)
		}
	}
	if want := filepath.Join(dir, "R_cropped.png"); result.Channels[0].Output != want {
		t.Errorf("output: got %s, want %s", result.Channels[0].Output, want)
	}

	// Cropping the same channels again is a no-op
	resp = callTool(t, s, "coverage_crop_apply", map[string]interface{}{
		"coverage": coverage,
		"channels": []string{red},
		"margins":  map[string]int{"left": 4, "top": 2, "right": 6, "bottom": 8},
	})
	var again cropApplyResponse
	decodeToolResult(t, resp, &again)
	if !again.Channels[0].Skipped {
		t.Error("second crop of the same channel should be skipped")
	}
}

func TestHandleToolsCall_CoverageCropApply_FromSidecar(t *testing.T) {
	s := New()
	dir := t.TempDir()
	coverage := createCoverageFile(t, dir, 60, 40, 4)
	channel := createTestImageFile(t, dir, "L.png", 60, 40, color.RGBA{128, 128, 128, 255})

	resp := callTool(t, s, "coverage_crop_apply", map[string]interface{}{
		"coverage": coverage,
		"channels": []string{channel},
	})
	if resp.Error == nil {
		t.Fatal("Expected error without margins or stored rectangle")
	}

	callTool(t, s, "coverage_autocrop", map[string]interface{}{"path": coverage, "persist": true})

	resp = callTool(t, s, "coverage_crop_apply", map[string]interface{}{
		"coverage": coverage,
		"channels": []string{channel},
	})
	var result cropApplyResponse
	decodeToolResult(t, resp, &result)

	if result.Source != cropfile.PathFor(coverage) {
		t.Errorf("source: got %s, want sidecar", result.Source)
	}
	if result.Channels[0].Width != 52 || result.Channels[0].Height != 32 {
		t.Errorf("cropped size: got %dx%d, want 52x32", result.Channels[0].Width, result.Channels[0].Height)
	}
}

func TestHandleToolsCall_CoverageCropApply_NoChannels(t *testing.T) {
	s := New()
	coverage := createCoverageFile(t, t.TempDir(), 20, 20, 2)

	resp := callTool(t, s, "coverage_crop_apply", map[string]interface{}{
		"coverage": coverage,
		"channels": []string{},
	})
	if resp.Error == nil {
		t.Fatal("Expected error for empty channel list")
	}
}

func TestHandleToolsCall_CoveragePreview(t *testing.T) {
	s := New()
	path := createCoverageFile(t, t.TempDir(), 40, 30, 3)

	tests := []struct {
		name       string
		args       map[string]interface{}
		wantSource string
		wantWidth  int
	}{
		{
			"solved",
			map[string]interface{}{"path": path},
			"solved",
			40,
		},
		{
			"explicit rect scaled",
			map[string]interface{}{
				"path":  path,
				"rect":  map[string]int{"x0": 5, "y0": 5, "x1": 35, "y1": 25},
				"scale": 0.5,
			},
			"arguments",
			20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "coverage_preview", tt.args)

			var result struct {
				Width       int    `json:"width"`
				ImageBase64 string `json:"image_base64"`
				MimeType    string `json:"mime_type"`
				Source      string `json:"source"`
				Rect        struct {
					X0, Y0, X1, Y1 int
				} `json:"rect"`
			}
			decodeToolResult(t, resp, &result)

			if result.Source != tt.wantSource {
				t.Errorf("source: got %s, want %s", result.Source, tt.wantSource)
			}
			if result.Width != tt.wantWidth {
				t.Errorf("width: got %d, want %d", result.Width, tt.wantWidth)
			}
			if result.MimeType != "image/png" || result.ImageBase64 == "" {
				t.Error("preview image missing")
			}
		})
	}
}

func TestHandleToolsCall_CoveragePreview_InvalidRect(t *testing.T) {
	s := New()
	path := createCoverageFile(t, t.TempDir(), 40, 30, 3)

	resp := callTool(t, s, "coverage_preview", map[string]interface{}{
		"path": path,
		"rect": map[string]int{"x0": 0, "y0": 0, "x1": 41, "y1": 30},
	})
	if resp.Error == nil {
		t.Fatal("Expected error for rectangle outside the map")
	}
}

func TestExecuteTool_AllTools(t *testing.T) {
	s := New()
	dir := t.TempDir()
	coverage := createCoverageFile(t, dir, 30, 30, 2)
	channel := createTestImageFile(t, dir, "C.png", 30, 30, color.RGBA{10, 20, 30, 255})

	args := map[string]interface{}{
		"coverage_load":       map[string]interface{}{"path": coverage},
		"coverage_sample":     map[string]interface{}{"path": coverage, "points": []map[string]int{{"x": 1, "y": 1}}},
		"coverage_autocrop":   map[string]interface{}{"path": coverage, "persist": true},
		"coverage_crop_rect":  map[string]interface{}{"path": coverage},
		"coverage_crop_apply": map[string]interface{}{"coverage": coverage, "channels": []string{channel}},
		"coverage_preview":    map[string]interface{}{"path": coverage},
	}

	// Definition order matters: crop_rect and crop_apply read what autocrop persisted.
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			a, ok := args[tool.Name]
			if !ok {
				t.Fatalf("no test arguments for %s", tool.Name)
			}
			raw, _ := json.Marshal(a)
			if _, err := s.executeTool(context.Background(), tool.Name, raw); err != nil {
				t.Errorf("executeTool(%s) failed: %v", tool.Name, err)
			}
		})
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	s := New()
	_, err := s.executeTool(context.Background(), "unknown_tool", json.RawMessage(`{}`))
	if err == nil {
		t.Error("executeTool should fail for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := New()
	_, err := s.executeTool(context.Background(), "coverage_load", json.RawMessage(`{invalid`))
	if err == nil {
		t.Error("executeTool should fail for invalid JSON")
	}
}
