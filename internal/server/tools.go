package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// solveOverrideProperties are the optional per-call overrides of the
// server configuration accepted by the solving tools.
func solveOverrideProperties() map[string]interface{} {
	return map[string]interface{}{
		"policy": map[string]interface{}{
			"type":        "string",
			"description": "Validity policy: 'coverage' (valid when > 0) or 'rejection' (valid when <= threshold). Default from server config",
			"enum":        []string{"coverage", "rejection"},
		},
		"threshold": map[string]interface{}{
			"type":        "number",
			"description": "Rejection threshold for the 'rejection' policy",
		},
		"tolerance": map[string]interface{}{
			"type":        "integer",
			"description": "Consecutive invalid pixels the center scan steps over. Default from server config",
		},
		"warn_percent": map[string]interface{}{
			"type":        "number",
			"description": "Coverage loss (0-100) above which the result carries a warning. Default 50",
		},
	}
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func marginsProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Pixels to remove from each edge",
		"properties": map[string]interface{}{
			"left":   map[string]interface{}{"type": "integer"},
			"top":    map[string]interface{}{"type": "integer"},
			"right":  map[string]interface{}{"type": "integer"},
			"bottom": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"left", "top", "right", "bottom"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	autocropProps := solveOverrideProperties()
	autocropProps["path"] = pathProperty("Absolute path to the coverage or rejection map")
	autocropProps["persist"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Write the chosen rectangle to '<path>.crop.yaml' for reuse. Default false",
		"default":     false,
	}
	autocropProps["reuse"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Use the rectangle from '<path>.crop.yaml' if present instead of solving. Default false",
		"default":     false,
	}

	return []Tool{
		// Coverage Map Information
		{
			Name:        "coverage_load",
			Description: "Load a coverage or rejection map and return its dimensions, bit depth and value statistics, including how many pixels are valid under the active policy.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the coverage or rejection map"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "coverage_sample",
			Description: "Read coverage values at several points and report whether each is valid under the active policy.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the coverage or rejection map"),
					"points": map[string]interface{}{
						"type":        "array",
						"description": "Points to sample",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
					},
				},
				"required": []string{"path", "points"},
			},
		},

		// Crop Rectangle
		{
			Name:        "coverage_autocrop",
			Description: "Find the largest rectangle around the image center where every pixel of the coverage map is valid, and return it with the edge margins to crop. A failed solve is reported with success=false and a diagnostic.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": autocropProps,
				"required":   []string{"path"},
			},
		},
		{
			Name:        "coverage_crop_rect",
			Description: "Read the crop rectangle stored next to a coverage map ('<path>.crop.yaml') and check it against the map's dimensions.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the coverage or rejection map"),
				},
				"required": []string{"path"},
			},
		},

		// Apply
		{
			Name:        "coverage_crop_apply",
			Description: "Crop channel images with the same margins and write '<name>_cropped' files. Margins come from the arguments or from the coverage map's stored rectangle. Channels already cropped in this session are skipped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"coverage": pathProperty("Absolute path to the coverage map the margins belong to"),
					"channels": map[string]interface{}{
						"type":        "array",
						"description": "Absolute paths of the channel images to crop",
						"items":       map[string]interface{}{"type": "string"},
					},
					"margins": marginsProperty(),
				},
				"required": []string{"coverage", "channels"},
			},
		},

		// Preview
		{
			Name:        "coverage_preview",
			Description: "Render the coverage map as PNG with the crop rectangle outlined and everything outside it dimmed. Without a rectangle, the stored one is used, or a new one is solved.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the coverage or rejection map"),
					"rect": map[string]interface{}{
						"type":        "object",
						"description": "Rectangle to draw, x0,y0 inclusive to x1,y1 exclusive",
						"properties": map[string]interface{}{
							"x0": map[string]interface{}{"type": "integer"},
							"y0": map[string]interface{}{"type": "integer"},
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"x0", "y0", "x1", "y1"},
					},
					"outline_color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color in hex. Default '#FF0000'",
						"default":     "#FF0000",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 0.25 for a quarter-size preview). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
