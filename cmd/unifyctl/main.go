// unifyctl is a CLI tool for exercising a running commerce-unify server.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	unifyctl sync -server URL -merchant ID -store URL -key CK -secret CS
//	unifyctl products -server URL -merchant ID [-protocol ACP|AP2]
//	unifyctl feed -server URL -merchant ID
//	unifyctl checkout -server URL -protocol ACP|AP2 -product ID [-qty N] [-token T] [-intent charge|authorize]
//
// Examples:
//
//	unifyctl sync -merchant m1 -store https://shop.example.com -key ck_x -secret cs_x
//	ID=$(unifyctl checkout -protocol AP2 -product 60 -intent charge -q)
//	unifyctl checkout -protocol ACP -product 60 -qty 2 -token spt_123 -agent https://agent.example/profile
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dunglas/httpsfv"
	"github.com/google/uuid"
)

var client = &http.Client{Timeout: 30 * time.Second}

// Global flags (apply to all commands)
var (
	serverURL    string
	agentProfile string // sent as Commerce-Agent when set
	quiet        bool
	noColor      bool
	verbose      bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorCyan, colorGray, colorBold = "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "sync":
		runSync(args)
	case "products":
		runProducts(args)
	case "feed":
		runFeed(args)
	case "checkout":
		runCheckout(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `unifyctl - commerce-unify test tool

Usage:
  unifyctl <command> [options]

Commands:
  sync      Import a merchant catalog from WooCommerce
  products  List stored products with protocol projections
  feed      Show a merchant's AP2 product feed
  checkout  Place an ACP or AP2 order

Examples:
  # Import products
  unifyctl sync -merchant m1 -store https://shop.example.com -key ck_x -secret cs_x

  # Place an intent-protocol order and capture its ID
  ID=$(unifyctl checkout -protocol AP2 -product 60 -intent charge -q)

  # Place a token-protocol order through the unified endpoint
  unifyctl checkout -protocol ACP -product 60 -token spt_123 -unified

Run 'unifyctl <command> -h' for command-specific options.
`)
}

// commonFlags registers the flags shared by every command.
func commonFlags(fs *flag.FlagSet) {
	fs.StringVar(&serverURL, "server", "http://localhost:8080", "commerce-unify base URL")
	fs.StringVar(&agentProfile, "agent", "", "Agent profile URL sent in the Commerce-Agent header")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output the essential value")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")
}

func parse(fs *flag.FlagSet, args []string) {
	fs.Parse(args)
	if noColor {
		disableColors()
	}
}

// =============================================================================
// SYNC COMMAND
// =============================================================================

func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	commonFlags(fs)
	var merchantID, storeURL, key, secret string
	fs.StringVar(&merchantID, "merchant", "", "Merchant ID (required)")
	fs.StringVar(&storeURL, "store", "", "WooCommerce store URL (required)")
	fs.StringVar(&key, "key", os.Getenv("WOOCOMMERCE_API_KEY"), "WooCommerce consumer key")
	fs.StringVar(&secret, "secret", os.Getenv("WOOCOMMERCE_API_SECRET"), "WooCommerce consumer secret")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: unifyctl sync -merchant ID -store URL [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	parse(fs, args)

	if merchantID == "" || storeURL == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("POST", "/api/unify/products", map[string]interface{}{
		"merchantId": merchantID,
		"wooCommerce": map[string]string{
			"storeUrl": storeURL,
			"key":      key,
			"secret":   secret,
		},
	})
	if err != nil {
		fatal("Sync failed: %v", err)
	}

	count, _ := resp["count"].(float64)
	if quiet {
		fmt.Println(int64(count))
		return
	}
	printSuccess("Catalog synced")
	fmt.Printf("  Merchant: %s%s%s\n", colorCyan, merchantID, colorReset)
	fmt.Printf("  Products: %d\n", int64(count))
}

// =============================================================================
// PRODUCTS / FEED COMMANDS
// =============================================================================

func runProducts(args []string) {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	commonFlags(fs)
	var merchantID, protocol string
	fs.StringVar(&merchantID, "merchant", "", "Merchant ID (required)")
	fs.StringVar(&protocol, "protocol", "", "Restrict projections to ACP or AP2")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: unifyctl products -merchant ID [-protocol ACP|AP2]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	parse(fs, args)

	if merchantID == "" {
		fs.Usage()
		os.Exit(1)
	}

	query := url.Values{"merchantId": {merchantID}}
	if protocol != "" {
		query.Set("protocol", strings.ToUpper(protocol))
	}

	resp, err := doRequest("GET", "/api/unify/products?"+query.Encode(), nil)
	if err != nil {
		fatal("Listing failed: %v", err)
	}

	products, _ := resp["products"].([]interface{})
	if quiet {
		fmt.Println(len(products))
		return
	}
	printSuccess("%d products", len(products))
	for _, p := range products {
		entry, _ := p.(map[string]interface{})
		base, _ := entry["base"].(map[string]interface{})
		fmt.Printf("  %s%-10v%s %v  %v %v\n", colorCyan, base["id"], colorReset, base["name"], base["price"], base["currency"])
	}
}

func runFeed(args []string) {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	commonFlags(fs)
	var merchantID string
	fs.StringVar(&merchantID, "merchant", "", "Merchant ID (required)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: unifyctl feed -merchant ID\n\nOptions:\n")
		fs.PrintDefaults()
	}
	parse(fs, args)

	if merchantID == "" {
		fs.Usage()
		os.Exit(1)
	}

	resp, err := doRequest("GET", "/api/ap2/feed/"+url.PathEscape(merchantID), nil)
	if err != nil {
		fatal("Feed failed: %v", err)
	}

	products, _ := resp["products"].([]interface{})
	merchant, _ := resp["merchant"].(map[string]interface{})
	if quiet {
		fmt.Println(len(products))
		return
	}
	printSuccess("Feed for %v (%v): %d products", merchant["name"], merchant["platform"], len(products))
}

// =============================================================================
// CHECKOUT COMMAND
// =============================================================================

func runCheckout(args []string) {
	fs := flag.NewFlagSet("checkout", flag.ExitOnError)
	commonFlags(fs)
	var protocol, productID, token, intent, provider, cartID string
	var quantity int
	var unified bool
	fs.StringVar(&protocol, "protocol", "ACP", "Checkout protocol: ACP or AP2")
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	fs.IntVar(&quantity, "qty", 1, "Quantity")
	fs.StringVar(&token, "token", "", "ACP shared payment token, or AP2 payment method token")
	fs.StringVar(&cartID, "cart", "", "ACP cart ID (random if not set)")
	fs.StringVar(&intent, "intent", "charge", "AP2 intent: charge or authorize")
	fs.StringVar(&provider, "provider", "visa", "AP2 payment provider")
	fs.BoolVar(&unified, "unified", false, "Send through /api/unify/orders")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: unifyctl checkout -protocol ACP|AP2 -product ID [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	parse(fs, args)

	if productID == "" {
		fs.Usage()
		os.Exit(1)
	}

	protocol = strings.ToUpper(protocol)
	var body map[string]interface{}
	switch protocol {
	case "ACP":
		if token == "" {
			fatal("-token is required for ACP")
		}
		if cartID == "" {
			cartID = "cart_" + uuid.NewString()
		}
		body = map[string]interface{}{
			"cartId":       cartID,
			"items":        []map[string]interface{}{{"productId": productID, "quantity": quantity}},
			"paymentToken": token,
		}
	case "AP2":
		if token == "" {
			token = "pm_" + uuid.NewString()
		}
		body = map[string]interface{}{
			"intent":        intent,
			"lineItems":     []map[string]interface{}{{"productId": productID, "quantity": quantity}},
			"paymentMethod": map[string]string{"provider": provider, "token": token},
		}
	default:
		fatal("Unsupported protocol: %s", protocol)
	}

	path := "/api/" + strings.ToLower(protocol) + "/checkout"
	if unified {
		body["protocol"] = protocol
		path = "/api/unify/orders"
	}

	resp, err := doRequest("POST", path, body)
	if err != nil {
		fatal("Checkout failed: %v", err)
	}

	orderID, _ := resp["orderId"].(string)
	if quiet {
		fmt.Println(orderID)
		return
	}
	printSuccess("Order placed")
	fmt.Printf("  ID:     %s%s%s\n", colorCyan, orderID, colorReset)
	fmt.Printf("  Status: %v\n", resp["status"])
}

// =============================================================================
// HTTP
// =============================================================================

// agentHeader encodes the Commerce-Agent structured field for profile.
func agentHeader(profile string) (string, error) {
	dict := httpsfv.NewDictionary()
	dict.Add("profile", httpsfv.NewItem(profile))
	dict.Add("name", httpsfv.NewItem("unifyctl"))
	return httpsfv.Marshal(dict)
}

func doRequest(method, path string, body interface{}) (map[string]interface{}, error) {
	var reqBody io.Reader
	var reqJSON []byte

	if body != nil {
		var err error
		reqJSON, err = json.MarshalIndent(body, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(reqJSON)
	}

	req, err := http.NewRequest(method, strings.TrimSuffix(serverURL, "/")+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if agentProfile != "" {
		header, err := agentHeader(agentProfile)
		if err != nil {
			return nil, fmt.Errorf("encoding agent header: %w", err)
		}
		req.Header.Set("Commerce-Agent", header)
	}

	if !quiet {
		printRequest(method, path, reqJSON)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if !quiet {
		printResponse(resp.StatusCode, respBody, duration)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return result, nil
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printRequest(method, path string, body []byte) {
	fmt.Printf("\n%s▶ REQUEST%s %s%s %s%s\n", colorYellow, colorReset, colorBold, method, path, colorReset)
	if body != nil {
		printJSON(body, "  ")
	}
}

func printResponse(status int, body []byte, duration time.Duration) {
	statusColor := colorGreen
	if status >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s◀ RESPONSE%s %s%d%s (%v)\n", colorCyan, colorReset, statusColor, status, colorReset, duration)
	printJSON(body, "  ")
}

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}

	output := pretty.String()
	if !verbose {
		lines := strings.Split(output, "\n")
		if len(lines) > 30 {
			lines = append(lines[:25], fmt.Sprintf("%s  %s(%d more lines, use -v for full output)%s", prefix, colorGray, len(lines)-25, colorReset))
			output = strings.Join(lines, "\n")
		}
	}
	fmt.Println(output)
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
