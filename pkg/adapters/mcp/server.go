// Package mcp exposes the storytelling session as MCP tools, so agent hosts
// can configure, play and inspect a story over stdio or SSE.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/aretw0/lifecycle"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/tellatale"
	"github.com/aretw0/tellatale/internal/runtime"
	"github.com/aretw0/tellatale/pkg/domain"
	"github.com/aretw0/tellatale/pkg/session"
)

// Server wraps the engine and recorder and exposes them as an MCP server.
type Server struct {
	engine    *runtime.Engine
	recorder  *session.Recorder
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(engine *runtime.Engine, recorder *session.Recorder) *Server {
	s := &Server{
		engine:    engine,
		recorder:  recorder,
		mcpServer: server.NewMCPServer("tellatale-mcp", strings.TrimSpace(tellatale.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		slog.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
		return nil
	})

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_story",
		mcp.WithDescription("Configure and start a new story. Returns the opening segment and its choices."),
		mcp.WithString("genre", mcp.Required(), mcp.Description("Story genre, e.g. Fantasy, Sci-Fi, Noir")),
		mcp.WithString("protagonist", mcp.Required(), mcp.Description("Protagonist name")),
		mcp.WithString("setting", mcp.Required(), mcp.Description("Where the story takes place")),
		mcp.WithString("archetype", mcp.Description("Protagonist archetype, e.g. Hero, Trickster")),
		mcp.WithString("tone", mcp.Description("Narrative tone, e.g. Epic, Grim")),
	), s.handleStartStory)

	s.mcpServer.AddTool(mcp.NewTool("choose_path",
		mcp.WithDescription("Pick one of the current segment's choices by 1-based number and continue the story."),
		mcp.WithNumber("choice", mcp.Required(), mcp.Description("1-based index of the choice to take")),
	), s.handleChoosePath)

	s.mcpServer.AddTool(mcp.NewTool("story_state",
		mcp.WithDescription("Get the full story so far: title, segments and personality profile."),
	), s.handleStoryState)

	s.mcpServer.AddTool(mcp.NewTool("soul_mirror",
		mcp.WithDescription("Get the protagonist's current soul traits, summary and archetype match."),
	), s.handleSoulMirror)

	s.mcpServer.AddTool(mcp.NewTool("reset_story",
		mcp.WithDescription("Abandon the current story. Requires confirm=true once segments exist."),
		mcp.WithBoolean("confirm", mcp.Description("Confirm discarding an in-progress story")),
	), s.handleResetStory)
}

func (s *Server) handleStartStory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	str := func(key string) string {
		v, _ := args[key].(string)
		return v
	}
	cfg := domain.Config{
		Genre:           str("genre"),
		Archetype:       str("archetype"),
		ProtagonistName: str("protagonist"),
		Setting:         str("setting"),
		Tone:            str("tone"),
	}
	if cfg.Archetype == "" {
		cfg.Archetype = domain.ArchetypeHero
	}

	if err := s.engine.Configure(cfg); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("configure failed: %v", err)), nil
	}
	if _, err := s.engine.Start(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("start failed: %v", err)), nil
	}
	s.autosave(ctx)
	return jsonResult(s.engine.Snapshot())
}

func (s *Server) handleChoosePath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	number, ok := args["choice"].(float64)
	if !ok {
		return mcp.NewToolResultError("choice must be a number"), nil
	}

	segment, err := s.engine.Choose(ctx, int(number)-1)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("choose failed: %v", err)), nil
	}
	s.autosave(ctx)
	return jsonResult(map[string]any{
		"segment": segment,
		"soul":    s.engine.Personality(),
	})
}

func (s *Server) handleStoryState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	story := s.engine.Snapshot()
	if story == nil {
		return mcp.NewToolResultError("no story in progress"), nil
	}
	return jsonResult(story)
}

func (s *Server) handleSoulMirror(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.engine.Personality())
}

func (s *Server) handleResetStory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	confirm, _ := request.GetArguments()["confirm"].(bool)
	if err := s.engine.Reset(confirm); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
	}
	return mcp.NewToolResultText("story abandoned"), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("tellatale://story", "Current Story",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		story := s.engine.Snapshot()
		if story == nil {
			return nil, fmt.Errorf("no story in progress")
		}
		jsonBytes, _ := json.Marshal(story)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "tellatale://story",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) autosave(ctx context.Context) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, s.engine.Snapshot()); err != nil {
		slog.Warn("autosave failed", "err", err)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
