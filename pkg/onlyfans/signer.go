package onlyfans

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HeaderRulesURL is the published ruleset the platform's web client derives
// its request signature from. The rules rotate, so they are fetched at
// startup rather than compiled in.
const HeaderRulesURL = "https://raw.githubusercontent.com/DATAHOARDERS/dynamic-rules/main/onlyfans.json"

// HeaderRules describes how the per-request signature is computed.
type HeaderRules struct {
	StaticParam      string `json:"static_param"`
	Format           string `json:"format"`
	ChecksumIndexes  []int  `json:"checksum_indexes"`
	ChecksumConstant int    `json:"checksum_constant"`
	AppToken         string `json:"app_token"`
}

// FetchHeaderRules downloads the current signing ruleset.
func FetchHeaderRules(client *http.Client, rulesURL string) (*HeaderRules, error) {
	if rulesURL == "" {
		rulesURL = HeaderRulesURL
	}
	resp, err := client.Get(rulesURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch header rules: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch header rules: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read header rules: %w", err)
	}

	var rules HeaderRules
	if err := json.Unmarshal(body, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse header rules: %w", err)
	}
	return &rules, nil
}

// Sign computes the time and sign header values for a request URL. Only
// these two change per request; the rest of the identity headers are static
// for the session.
func (r *HeaderRules) Sign(rawURL string, now time.Time) (timeHeader, signHeader string, err error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse url for signing: %w", err)
	}

	urlPath := parsed.Path
	if parsed.RawQuery != "" {
		urlPath = parsed.Path + "?" + parsed.RawQuery
	}

	seconds := strconv.FormatInt(now.Unix(), 10)

	sum := sha1.Sum([]byte(strings.Join([]string{r.StaticParam, seconds, urlPath, "0"}, "\n")))
	digest := hex.EncodeToString(sum[:])

	checksum := r.ChecksumConstant
	for _, idx := range r.ChecksumIndexes {
		if idx < 0 || idx >= len(digest) {
			return "", "", fmt.Errorf("checksum index %d out of range", idx)
		}
		checksum += int(digest[idx])
	}
	if checksum < 0 {
		checksum = -checksum
	}

	// The format string carries two placeholders: {} for the digest and
	// {:x} for the checksum rendered as lowercase hex.
	sign := strings.Replace(r.Format, "{}", digest, 1)
	sign = strings.Replace(sign, "{:x}", strconv.FormatInt(int64(checksum), 16), 1)

	return seconds, sign, nil
}
