// Package main implements the complyctl CLI for manual operations against
// the complyd HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the complyd HTTP server
	serverURL string
	// shared request flags
	documentType string
	modules      []string
	contextPairs []string
	// correct flags
	noApply            bool
	preserveFormatting bool
	showDiff           bool
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "complyctl",
	Short: "CLI for complyd HTTP server operations",
	Long: `complyctl is a command-line interface for the complyd HTTP server.
It provides commands for validating documents against compliance gates,
synthesizing corrections, and checking server health.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9070", "complyd server URL")
	validateCmd.Flags().StringVar(&documentType, "type", "", "document type (e.g. financial-promotion)")
	validateCmd.Flags().StringSliceVar(&modules, "modules", nil, "gate modules to run")
	validateCmd.Flags().StringSliceVar(&contextPairs, "context", nil, "context hints as key=value pairs")
	correctCmd.Flags().StringVar(&documentType, "type", "", "document type (e.g. financial-promotion)")
	correctCmd.Flags().StringSliceVar(&modules, "modules", nil, "gate modules to run")
	correctCmd.Flags().StringSliceVar(&contextPairs, "context", nil, "context hints as key=value pairs")
	correctCmd.Flags().BoolVar(&noApply, "no-apply", false, "report planned corrections without applying them")
	correctCmd.Flags().BoolVar(&preserveFormatting, "preserve-formatting", false, "keep trailing whitespace as spliced")
	correctCmd.Flags().BoolVar(&showDiff, "diff", false, "print the correction diff to stderr")
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(correctCmd)
	rootCmd.AddCommand(healthCmd)
}

// validateCmd evaluates gates against a file or stdin
var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a document against compliance gates",
	Long: `Validate a document from a file or stdin using the complyd server.

Examples:
  # Validate a file
  complyctl validate --type financial-promotion --modules financial-promotions promo.md

  # Validate from stdin
  cat promo.md | complyctl validate --type financial-promotion --modules financial-promotions -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

// correctCmd validates and corrects a file or stdin
var correctCmd = &cobra.Command{
	Use:   "correct [file]",
	Short: "Validate a document and synthesize corrections",
	Long: `Validate a document and apply catalogue corrections using the complyd
server. The corrected text is written to stdout; the audit summary goes
to stderr.

Examples:
  # Correct a file
  complyctl correct --type financial-promotion --modules financial-promotions promo.md

  # Plan without applying
  complyctl correct --no-apply --type financial-promotion --modules financial-promotions promo.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCorrect,
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check complyd server health",
	RunE:  runHealth,
}

// Wire types match internal/http and internal/compliance.

type validateRequest struct {
	Text         string            `json:"text"`
	DocumentType string            `json:"document_type"`
	Modules      []string          `json:"modules"`
	Context      map[string]string `json:"context,omitempty"`
}

type correctRequest struct {
	validateRequest
	AutoApply          bool `json:"auto_apply"`
	PreserveFormatting bool `json:"preserve_formatting"`
}

type gateResult struct {
	GateID   string `json:"gate_id"`
	Status   string `json:"status"`
	Severity string `json:"severity"`
	Err      string `json:"error,omitempty"`
	Violations []struct {
		Category string `json:"category"`
		Reason   string `json:"reason"`
		Severity string `json:"severity"`
	} `json:"violations,omitempty"`
}

type validateResponse struct {
	RequestID  string `json:"request_id"`
	Validation struct {
		Results  map[string]gateResult `json:"results"`
		Degraded bool                  `json:"degraded,omitempty"`
	} `json:"validation"`
}

type correctResponse struct {
	RequestID string `json:"request_id"`
	Applied   bool   `json:"applied"`
	Result    struct {
		Corrected string `json:"corrected"`
		Status    string `json:"status"`
		Corrections []struct {
			PatternID string `json:"pattern_id"`
			Before    string `json:"before"`
			After     string `json:"after"`
			Citation  string `json:"citation,omitempty"`
		} `json:"corrections,omitempty"`
		Suggestions []struct {
			PatternID string `json:"pattern_id"`
			Note      string `json:"note"`
		} `json:"suggestions,omitempty"`
		Fingerprint string `json:"fingerprint"`
		Diff        string `json:"diff,omitempty"`
	} `json:"result"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// readInput reads the document from a file argument or stdin.
func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		return content, nil
	}
	content, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", args[0], err)
	}
	return content, nil
}

// parseContext splits key=value pairs into a map.
func parseContext(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid context pair %q, want key=value", p)
		}
		out[k] = v
	}
	return out, nil
}

// postJSON sends a request and decodes the response into out.
func postJSON(path string, body, out any) error {
	reqJSON, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := serverURL + path
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// runValidate handles the validate command
func runValidate(cmd *cobra.Command, args []string) error {
	content, err := readInput(args)
	if err != nil {
		return err
	}
	docContext, err := parseContext(contextPairs)
	if err != nil {
		return err
	}

	var resp validateResponse
	err = postJSON("/api/v1/validate", validateRequest{
		Text:         string(content),
		DocumentType: documentType,
		Modules:      modules,
		Context:      docContext,
	}, &resp)
	if err != nil {
		return err
	}

	if resp.Validation.Degraded {
		fmt.Fprintln(os.Stderr, "[complyctl] semantic collaborator unavailable, pattern-only results")
	}

	failed := 0
	for _, r := range resp.Validation.Results {
		if r.Status == "FAIL" || r.Status == "WARNING" || r.Status == "ERROR" {
			failed++
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp.Validation); err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d gate(s) did not pass", failed)
	}
	return nil
}

// runCorrect handles the correct command
func runCorrect(cmd *cobra.Command, args []string) error {
	content, err := readInput(args)
	if err != nil {
		return err
	}
	docContext, err := parseContext(contextPairs)
	if err != nil {
		return err
	}

	var resp correctResponse
	err = postJSON("/api/v1/correct", correctRequest{
		validateRequest: validateRequest{
			Text:         string(content),
			DocumentType: documentType,
			Modules:      modules,
			Context:      docContext,
		},
		AutoApply:          !noApply,
		PreserveFormatting: preserveFormatting,
	}, &resp)
	if err != nil {
		return err
	}

	// Corrected text to stdout, audit summary to stderr.
	fmt.Print(resp.Result.Corrected)

	for _, c := range resp.Result.Corrections {
		fmt.Fprintf(os.Stderr, "[complyctl] %s: %q -> %q", c.PatternID, c.Before, c.After)
		if c.Citation != "" {
			fmt.Fprintf(os.Stderr, " (%s)", c.Citation)
		}
		fmt.Fprintln(os.Stderr)
	}
	for _, sg := range resp.Result.Suggestions {
		fmt.Fprintf(os.Stderr, "[complyctl] suggestion %s: %s\n", sg.PatternID, sg.Note)
	}
	if showDiff && resp.Result.Diff != "" {
		fmt.Fprintln(os.Stderr, resp.Result.Diff)
	}
	fmt.Fprintf(os.Stderr, "[complyctl] status=%s applied=%t fingerprint=%s\n",
		resp.Result.Status, resp.Applied, resp.Result.Fingerprint)

	return nil
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	url := serverURL + "/health"

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", url, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Server Status: %s\n", health.Status)
	fmt.Printf("Server URL: %s\n", serverURL)

	return nil
}
