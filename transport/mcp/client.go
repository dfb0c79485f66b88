package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/storekeeper/game/engine"
	"github.com/wricardo/storekeeper/game/service"
)

// Client is a thin MCP server whose tools proxy to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Storekeeper",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Storekeeper (Sokoban) - MCP Interface

This is a thin client that proxies all requests to the REST API server.

OBJECTIVE:
Push every box ($) onto a goal (.). The worker (@) walks one cell at a time
and can push a single box if the cell behind it is free. Boxes cannot be pulled.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage sessions
- game_state: current level, counters and rendered board
- move: one step (up/down/left/right) - requires intent explanation
- bulk_move: many steps, as a list or a LURD string - requires intent explanation
- reset_level: restart the current level
- select_level / next_level / previous_level: level navigation
- move_history: past moves with pagination
- list_packs: available level packs
- game_instructions: full rules and symbols
- describe_cell: what occupies a given row/column

NOTE: The 'intent' parameter on move/bulk_move serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session on a level pack",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"pack_id": map[string]interface{}{
					"type":        "string",
					"description": "Level pack to play (optional, defaults to the server default)",
				},
				"level": map[string]interface{}{
					"type":        "integer",
					"description": "Zero-based level index to start on (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current level state and board",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the worker one cell, pushing a box if one is in the way",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to move",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset the level before moving",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: "Execute multiple moves in sequence; stops at the first blocked move or when the level is solved",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"up", "down", "left", "right", "u", "d", "l", "r"},
					},
					"description": "Array of moves",
				},
				"lurd": map[string]interface{}{
					"type":        "string",
					"description": "Moves in LURD notation, e.g. \"rrUlD\" (alternative to moves)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of moves",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset the level before moving",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_level",
		Description: "Reset the current level to its initial layout",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	// Level navigation
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_level",
		Description: "Jump to a level of the pack by zero-based index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "Zero-based level index",
				},
			},
			Required: []string{"session_id", "index"},
		},
	}, c.handleSelectLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "next_level",
		Description: "Go to the next level (wraps to the first)",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleNextLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "previous_level",
		Description: "Go to the previous level (wraps to the last)",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handlePreviousLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_packs",
		Description: "List available level packs",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPacks)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules, symbols and notation",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe what occupies a cell of the current level. Useful to tell a box on a goal (*) from a plain box ($).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Zero-based row",
				},
				"column": map[string]interface{}{
					"type":        "integer",
					"description": "Zero-based column",
				},
			},
			Required: []string{"session_id", "row", "column"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	if packID := stringArg(args, "pack_id"); packID != "" {
		body["pack_id"] = packID
	}
	if level, ok := intArg(args, "level"); ok {
		body["level"] = level
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\n\n%s", info.ID, formatSessionInfo(&info))), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		level := ""
		if s.GameState != nil {
			level = fmt.Sprintf(", Level %d/%d", s.GameState.CurrentIndex+1, s.GameState.LevelCount)
		}
		fmt.Fprintf(&b, "- %s (Pack: %s%s, Created: %s)\n", s.ID, s.PackID, level, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var info service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")
	reset, _ := args["reset"].(bool)

	body := map[string]interface{}{
		"direction": stringArg(args, "direction"),
		"reset":     reset,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")
	reset, _ := args["reset"].(bool)

	movesRaw, _ := args["moves"].([]interface{})
	moves := make([]string, 0, len(movesRaw))
	for _, m := range movesRaw {
		if move, ok := m.(string); ok {
			moves = append(moves, move)
		}
	}
	for _, r := range stringArg(args, "lurd") {
		moves = append(moves, string(r))
	}
	if len(moves) == 0 {
		return mcp.NewToolResultError("either moves or lurd is required"), nil
	}

	body := map[string]interface{}{
		"moves": moves,
		"reset": reset,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleSelectLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	index, ok := intArg(args, "index")
	if !ok {
		return mcp.NewToolResultError("index is required"), nil
	}
	return c.navigate(ctx, stringArg(args, "session_id"), "/level", map[string]int{"index": index})
}

func (c *Client) handleNextLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.navigate(ctx, stringArg(arguments(request), "session_id"), "/next", nil)
}

func (c *Client) handlePreviousLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.navigate(ctx, stringArg(arguments(request), "session_id"), "/previous", nil)
}

func (c *Client) navigate(ctx context.Context, sessionID, suffix string, body interface{}) (*mcp.CallToolResult, error) {
	var state engine.GameState
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, suffix), body, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order := stringArg(args, "order"); order != "" {
		params.Set("order", order)
	}
	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatHistory(&history)

	// current attempt in LURD form, if the state is reachable
	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err == nil {
		result += "\n" + formatCurrentAttempt(&state)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListPacks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var packs []service.PackInfo
	if err := c.apiCall(ctx, "GET", "/api/packs", nil, &packs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Level Packs:\n\n")
	for _, p := range packs {
		fmt.Fprintf(&b, "• %s (%s, %s)\n", p.PackID, p.Name, p.Format)
		if p.Description != "" {
			fmt.Fprintf(&b, "  %s\n", p.Description)
		}
		fmt.Fprintf(&b, "  Levels: %d", p.LevelCount)
		if len(p.LevelNames) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(p.LevelNames, ", "))
		}
		b.WriteString("\n\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Storekeeper - Complete Instructions

OBJECTIVE:
Push every box onto a goal. A level is solved when no box is off a goal.

SYMBOLS:
  @  worker            +  worker standing on a goal
  $  box               *  box on a goal
  .  goal              #  wall
     (space) floor

Everything outside the drawn level behaves like a wall.

MOVEMENT:
• The worker moves one cell up, down, left or right.
• Walking into a wall does nothing and is not counted.
• Walking into a box pushes it one cell, but only if the cell beyond is
  floor or an empty goal. A box cannot push another box.
• Boxes can never be pulled, so a box pushed into a corner that is not a
  goal is stuck for good. Use reset_level when that happens.

COUNTERS:
• moves counts every step the worker takes, pushes included.
• pushes counts only the steps that moved a box.

LURD NOTATION:
Solutions are written as strings of l, u, r, d. Lowercase letters are plain
walks, uppercase letters are pushes, e.g. "rrUlD". bulk_move accepts this
notation directly through its lurd parameter; case is ignored on input.

STRATEGY:
1. Read the board with game_state before moving.
2. Plan pushes backwards from the goals; check the cell behind each box.
3. Use bulk_move for walks you are sure of, single moves near boxes.
4. describe_cell tells you exactly what occupies a cell.
5. bulk_move stops on the first blocked step (stop_reason_code tells you
   whether a wall, a box or the level boundary was in the way) and on the
   step that solves the level.

LEVELS:
A session plays one level pack. Use next_level, previous_level or
select_level to move around; solved levels are remembered per session.`

	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "column")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and column are required"), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	layout := state.Level.Layout
	if row < 0 || row >= len(layout) || col < 0 || col >= state.Level.Columns {
		return mcp.NewToolResultError(fmt.Sprintf("Cell (%d, %d) is outside the level. The level has %d rows and %d columns (0-based) and everything outside acts as a wall.",
			row, col, len(layout), state.Level.Columns)), nil
	}

	symbol := byte(' ')
	if line := layout[row]; col < len(line) {
		symbol = line[col]
	}
	name, passable, description := describeSymbol(symbol)

	result := fmt.Sprintf(`Cell at row %d, column %d:
━━━━━━━━━━━━━━━━━━━━━━━━
Symbol: %q
Type: %s
Worker can enter: %s
Description: %s`,
		row, col, string(symbol), name, passable, description)

	return mcp.NewToolResultText(result), nil
}

func describeSymbol(symbol byte) (name, passable, description string) {
	switch symbol {
	case '#':
		return "Wall", "no", "Walls never move and block both the worker and boxes"
	case '.':
		return "Goal", "yes", "Empty goal - a box must end up here"
	case '$':
		return "Box", "only by pushing", "Box off goal - push it onto a goal; the cell behind it must be free"
	case '*':
		return "Box on goal", "only by pushing", "Box already on a goal - pushing it off undoes progress"
	case '@':
		return "Worker", "yes", "The worker's current position"
	case '+':
		return "Worker on goal", "yes", "The worker stands on an empty goal"
	default:
		return "Floor", "yes", "Empty floor"
	}
}

// Formatting helpers

func formatSessionInfo(info *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nPack: %s (%s)\nCreated: %s\n\n%s",
		info.ID, info.PackID, info.PackName,
		info.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(info.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	lvl := state.Level
	fmt.Fprintf(&b, "Pack: %s | Level %d/%d: %s\n", state.PackName, state.CurrentIndex+1, state.LevelCount, lvl.Name)
	if lvl.Description != "" {
		fmt.Fprintf(&b, "%s\n", lvl.Description)
	}
	fmt.Fprintf(&b, "Worker: (row %d, col %d) | Moves: %d | Pushes: %d | Boxes on goal: %d/%d | Total moves: %d\n\n",
		lvl.Worker.Row, lvl.Worker.Column, lvl.Stats.Moves, lvl.Stats.Pushes,
		lvl.Stats.BoxesOnGoal, lvl.Stats.Boxes, state.TotalMoves)

	for _, row := range lvl.Layout {
		b.WriteString(row)
		b.WriteString("\n")
	}

	if lvl.History != "" {
		fmt.Fprintf(&b, "\nLURD: %s\n", lvl.History)
	}
	if lvl.Completed {
		b.WriteString("\n🎉 LEVEL COMPLETED!\n")
	}
	if len(state.Solved) > 0 {
		solved := make([]string, len(state.Solved))
		for i, idx := range state.Solved {
			solved[i] = fmt.Sprint(idx + 1)
		}
		fmt.Fprintf(&b, "Solved levels: %s\n", strings.Join(solved, ", "))
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}
	return b.String()
}

func formatStep(s *service.StepInfo) string {
	line := fmt.Sprintf("%d. %s (%d,%d)→(%d,%d)", s.Idx, s.Dir, s.From.Row, s.From.Column, s.To.Row, s.To.Column)
	if s.Push && s.BoxTo != nil {
		line += fmt.Sprintf(" push box→(%d,%d)", s.BoxTo.Row, s.BoxTo.Column)
		if s.BoxOnGoal {
			line += " on goal"
		}
	}
	if s.Completed {
		line += " SOLVED"
	}
	return line + "\n"
}

func formatAttempt(a *service.AttemptInfo) string {
	return fmt.Sprintf("Blocked: attempted (row %d, col %d) blocked by %s\n", a.Row, a.Column, a.Blocker)
}

func formatEvents(b *strings.Builder, events []service.GameEvent) {
	if len(events) == 0 {
		return
	}
	b.WriteString("Events:\n")
	for _, event := range events {
		fmt.Fprintf(b, "- %s: %s\n", event.Type, event.Message)
	}
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Move successful\n")
	} else {
		b.WriteString("✗ Move failed\n")
	}

	if result.Step != nil {
		b.WriteString("Step: ")
		b.WriteString(formatStep(result.Step))
	}
	if result.AttemptedTo != nil {
		b.WriteString(formatAttempt(result.AttemptedTo))
	}
	formatEvents(&b, result.Events)

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	packName := ""
	if result.GameState != nil {
		packName = result.GameState.PackName
	}
	fmt.Fprintf(&b, "Session: %s • Pack: %s\n", sessionID, packName)
	fmt.Fprintf(&b, "Executed %d/%d moves (pushes +%d)\n", result.MovesExecuted, result.RequestedMoves, result.PushesDelta)
	if result.Truncated {
		fmt.Fprintf(&b, "Request truncated to %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on move %d: %s [%s]\n", result.StoppedOnMove, result.StoppedReason, result.StopReasonCode)
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps (this call):\n")
		for i := range result.Steps {
			b.WriteString(formatStep(&result.Steps[i]))
		}
	}
	if result.AttemptedTo != nil {
		b.WriteString("\n")
		b.WriteString(formatAttempt(result.AttemptedTo))
	}

	if len(result.Events) > 0 {
		b.WriteString("\n")
		formatEvents(&b, result.Events)
	}

	if len(result.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "\nPossible moves: %s\n", strings.Join(result.PossibleMoves, ","))
	}
	if len(result.LocalView3x3) > 0 {
		b.WriteString("Local 3x3:\n")
		for _, row := range result.LocalView3x3 {
			b.WriteString(row)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (page %d/%d, %d total):\n\n", history.Page, history.TotalPages, history.TotalMoves)
	for _, m := range history.Moves {
		status := "✓"
		if !m.Success {
			status = "✗"
		}
		kind := "walk"
		if m.Push {
			kind = "push"
		}
		fmt.Fprintf(&b, "#%d L%d %s %s (%d,%d)→(%d,%d) %s\n",
			m.MoveNumber, m.Level+1, m.Action, kind,
			m.FromPosition.Row, m.FromPosition.Column,
			m.ToPosition.Row, m.ToPosition.Column, status)
	}
	if history.HasNext {
		b.WriteString("\nMore moves on the next page.\n")
	}
	return b.String()
}

func formatCurrentAttempt(state *engine.GameState) string {
	if state.Level.History == "" {
		return "Current attempt: no moves yet"
	}
	return fmt.Sprintf("Current attempt (LURD): %s", state.Level.History)
}
