package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"czagent/internal/tools"
	"czagent/internal/workflow"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const (
	serverName    = "czagent-inventory"
	serverVersion = "1.0.0"
)

// Asker 运行一次完整的查询编排。
type Asker interface {
	Run(ctx context.Context, query string) *workflow.State
}

// Server 将工具层以 MCP 工具的形式暴露出去。
type Server struct {
	svc    *tools.Service
	asker  Asker
	logger *zap.Logger
	mcp    *server.MCPServer
}

// New 注册全部工具。asker 为空时不注册 ask_agent。
func New(svc *tools.Service, asker Asker, logger *zap.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("tool service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		svc:    svc,
		asker:  asker,
		logger: logger,
		mcp:    server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s, nil
}

// MCP 返回底层 MCP server。
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio 通过标准输入输出提供服务，直到输入结束。
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp server starting on stdio", zap.Int("tools", len(s.mcp.ListTools())))
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("list_servers",
		mcp.WithDescription("List servers, optionally filtered by status, region, room and rack"),
		mcp.WithString("status", mcp.Description("online / offline / maintenance / installing / install_failed")),
		mcp.WithString("region", mcp.Description("Region, e.g. cn-north")),
		mcp.WithString("room", mcp.Description("Room, e.g. room-01")),
		mcp.WithString("rack", mcp.Description("Rack label, e.g. rack-A02")),
	), s.handleListServers)

	s.mcp.AddTool(mcp.NewTool("get_server_details",
		mcp.WithDescription("Get the full record of a server"),
		mcp.WithString("server_id", mcp.Required(), mcp.Description("Server ID, e.g. srv-0020")),
	), s.byServerID(s.svc.GetServerDetails))

	s.mcp.AddTool(mcp.NewTool("get_server_topology",
		mcp.WithDescription("Get in-band and out-of-band network paths of a server"),
		mcp.WithString("server_id", mcp.Required(), mcp.Description("Server ID")),
	), s.byServerID(s.svc.GetServerTopology))

	s.mcp.AddTool(mcp.NewTool("get_rack_topology",
		mcp.WithDescription("Aggregate connectivity of all servers in a rack"),
		mcp.WithString("rack_id", mcp.Required(), mcp.Description("Rack label, e.g. rack-A02")),
		mcp.WithString("region", mcp.Description("Limit to a region")),
		mcp.WithString("availability_zone", mcp.Description("Limit to an availability zone")),
		mcp.WithString("room", mcp.Description("Limit to a room")),
	), s.handleRackTopology)

	s.mcp.AddTool(mcp.NewTool("get_switch_info",
		mcp.WithDescription("Get switch summary with port statistics"),
		mcp.WithString("switch_id", mcp.Required(), mcp.Description("Switch ID, e.g. sw-tor-001")),
	), s.handleSwitchInfo)

	s.mcp.AddTool(mcp.NewTool("get_installation_logs",
		mcp.WithDescription("Get the latest installation attempt of a server"),
		mcp.WithString("server_id", mcp.Required(), mcp.Description("Server ID")),
		mcp.WithString("start_time", mcp.Description("RFC3339 lower bound for log entries")),
		mcp.WithString("end_time", mcp.Description("RFC3339 upper bound for log entries")),
	), s.handleInstallationLogs)

	s.mcp.AddTool(mcp.NewTool("analyze_installation_failure",
		mcp.WithDescription("Diagnose why a server failed to install, combining logs, topology and rack status"),
		mcp.WithString("server_id", mcp.Required(), mcp.Description("Server ID")),
	), s.byServerID(s.svc.AnalyzeInstallationFailure))

	if s.asker != nil {
		s.mcp.AddTool(mcp.NewTool("ask_agent",
			mcp.WithDescription("Ask the ops assistant a free-text question about the fleet"),
			mcp.WithString("query", mcp.Required(), mcp.Description("Question, e.g. 分析srv-0020安装失败的原因")),
		), s.handleAsk)
	}
}

func (s *Server) handleListServers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := tools.ServerFilter{
		Status: request.GetString("status", ""),
		Region: request.GetString("region", ""),
		Room:   request.GetString("room", ""),
		Rack:   request.GetString("rack", ""),
	}
	return s.respond(s.svc.ListServers(ctx, filter))
}

func (s *Server) byServerID(op func(context.Context, string) (tools.Result, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("server_id")
		if err != nil {
			return mcp.NewToolResultError("server_id argument is required"), nil
		}
		return s.respond(op(ctx, id))
	}
}

func (s *Server) handleRackTopology(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rackID, err := request.RequireString("rack_id")
	if err != nil {
		return mcp.NewToolResultError("rack_id argument is required"), nil
	}
	scope := tools.RackScope{
		Region:           request.GetString("region", ""),
		AvailabilityZone: request.GetString("availability_zone", ""),
		Room:             request.GetString("room", ""),
	}
	return s.respond(s.svc.GetRackTopology(ctx, rackID, scope))
}

func (s *Server) handleSwitchInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("switch_id")
	if err != nil {
		return mcp.NewToolResultError("switch_id argument is required"), nil
	}
	return s.respond(s.svc.GetSwitchInfo(ctx, id))
}

func (s *Server) handleInstallationLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("server_id")
	if err != nil {
		return mcp.NewToolResultError("server_id argument is required"), nil
	}
	window, err := tools.ParseLogWindow(request.GetString("start_time", ""), request.GetString("end_time", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.respond(s.svc.GetInstallationLogs(ctx, id, window))
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required"), nil
	}
	st := s.asker.Run(ctx, query)
	if st == nil {
		return mcp.NewToolResultError("workflow returned no state"), nil
	}
	return mcp.NewToolResultText(st.Response), nil
}

func (s *Server) respond(res tools.Result, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("tool call failed: %v", err)), nil
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
