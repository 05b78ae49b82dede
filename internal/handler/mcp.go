// MCP transport handler using the official MCP Go SDK.
// Exposes both checkout protocols and the product listing as MCP tools.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"commerce-unify/internal/agent"
	"commerce-unify/internal/model"
)

// === MCP Meta Types ===
// meta carries what the Commerce-Agent header carries on REST requests.

// MCPMeta represents request metadata in MCP requests.
type MCPMeta struct {
	Agent *AgentMeta `json:"commerce-agent,omitempty" jsonschema:"calling agent"`
}

// AgentMeta identifies the calling agent.
type AgentMeta struct {
	Profile string `json:"profile" jsonschema:"agent profile URL,required"`
	Name    string `json:"name,omitempty" jsonschema:"agent display name"`
}

// === MCP Tool Input Types ===
// Params structure is {meta?, checkout}; checkout is the protocol's REST body.

// ACPCheckoutInput is the input schema for the acp_checkout tool.
type ACPCheckoutInput struct {
	Meta     *MCPMeta                 `json:"meta,omitempty" jsonschema:"request metadata"`
	Checkout model.ACPCheckoutRequest `json:"checkout" jsonschema:"token-protocol checkout payload,required"`
}

// AP2CheckoutInput is the input schema for the ap2_checkout tool.
type AP2CheckoutInput struct {
	Meta     *MCPMeta                 `json:"meta,omitempty" jsonschema:"request metadata"`
	Checkout model.AP2CheckoutRequest `json:"checkout" jsonschema:"intent-protocol checkout payload,required"`
}

// ListProductsInput is the input schema for the list_products tool.
type ListProductsInput struct {
	MerchantID string `json:"merchantId" jsonschema:"merchant ID,required"`
	Protocol   string `json:"protocol,omitempty" jsonschema:"ACP or AP2; omit for both projections"`
}

// NewMCPServer creates an MCP server with the commerce tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "commerce-unify",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Agentic commerce checkout for the token (ACP) and intent (AP2) protocols. " +
				"List a merchant's products, then place an order with the protocol you speak.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "acp_checkout",
		Description: "Place an order with a shared payment token. Only the first item is priced.",
	}, h.mcpACPCheckout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ap2_checkout",
		Description: "Place an order from a payment intent. intent=charge captures, anything else stays pending.",
	}, h.mcpAP2Checkout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_products",
		Description: "List a merchant's products with their protocol-specific projections.",
	}, h.mcpListProducts)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpACPCheckout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ACPCheckoutInput,
) (*mcp.CallToolResult, *model.ACPCheckoutResponse, error) {
	resp, err := h.checkouts.CheckoutACP(withMetaAgent(ctx, input.Meta), input.Checkout)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, resp, nil
}

func (h *Handler) mcpAP2Checkout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AP2CheckoutInput,
) (*mcp.CallToolResult, *model.AP2CheckoutResponse, error) {
	resp, err := h.checkouts.CheckoutAP2(withMetaAgent(ctx, input.Meta), input.Checkout)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, resp, nil
}

// mcpListProducts returns an untyped result: projections embed raw override
// JSON that has no fixed schema.
func (h *Handler) mcpListProducts(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListProductsInput,
) (*mcp.CallToolResult, any, error) {
	if input.MerchantID == "" {
		return nil, nil, fmt.Errorf("merchantId is required")
	}
	protocol, err := parseProtocolFilter(input.Protocol)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	listing, err := h.listProducts(ctx, input.MerchantID, protocol)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, listing, nil
}

// withMetaAgent stores the agent from meta in ctx, keeping any agent the
// HTTP middleware already put there.
func withMetaAgent(ctx context.Context, meta *MCPMeta) context.Context {
	if meta == nil || meta.Agent == nil || meta.Agent.Profile == "" {
		return ctx
	}
	if agent.FromContext(ctx) != nil {
		return ctx
	}
	return agent.WithAgent(ctx, &agent.Agent{Profile: meta.Agent.Profile, Name: meta.Agent.Name})
}

// mcpError converts service errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Kind, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
