// Package hibp checks passwords against the Have I Been Pwned range API.
// Only the first five hex characters of the SHA-1 ever leave the process.
package hibp

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Client implements BreachChecker
var _ driven.BreachChecker = (*Client)(nil)

// DefaultBaseURL is the public Pwned Passwords endpoint
const DefaultBaseURL = "https://api.pwnedpasswords.com"

// DefaultTimeout keeps registration snappy when the API is slow
const DefaultTimeout = 5 * time.Second

// Client queries /range/{prefix}
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates a range API client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "sercha-ingest",
		http:      &http.Client{Timeout: timeout},
	}
}

// IsBreached reports whether password appears in the corpus with a non-zero count.
// Padding entries (count 0) are ignored.
func (c *Client) IsBreached(ctx context.Context, password string) (bool, error) {
	sum := sha1.Sum([]byte(password))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	prefix, suffix := digest[:5], digest[5:]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/range/"+prefix, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Add-Padding", "true")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("range request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("range API returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		hashSuffix, count, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(hashSuffix, suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		return err == nil && n > 0, nil
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("failed to read range response: %w", err)
	}
	return false, nil
}
