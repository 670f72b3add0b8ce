// Package probe performs the HTTP/HTTPS liveness checks used to enrich
// discovered assets. A probe never fails: transport errors collapse into a
// sentinel status and a placeholder title.
package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"reconflow/pkg/logger"

	"github.com/sirupsen/logrus"
)

const (
	// SentinelStatus is recorded when the probe cannot reach the host.
	// Rendered as "000" by clients.
	SentinelStatus = 0

	// PlaceholderTitle is recorded alongside the sentinel status.
	PlaceholderTitle = "title unavailable"

	maxTitleLen  = 200
	maxBodyBytes = 512 * 1024
)

var titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

type Prober struct {
	client *http.Client
	logger *logger.Logger
}

// NewProber builds a prober with the given per-request timeout, clamped to
// the 1-10s window.
func NewProber(timeout time.Duration) *Prober {
	if timeout < time.Second {
		timeout = time.Second
	}
	if timeout > 10*time.Second {
		timeout = 10 * time.Second
	}
	return &Prober{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		logger: logger.NewLogger(logrus.InfoLevel),
	}
}

// Probe issues a GET against scheme://host and returns the response status
// and page title. Any transport failure yields (SentinelStatus,
// PlaceholderTitle); the method never returns an error.
func (p *Prober) Probe(ctx context.Context, scheme, host string) (int, string) {
	return p.ProbeURL(ctx, fmt.Sprintf("%s://%s", scheme, host))
}

// ProbeURL is Probe for a pre-built URL.
func (p *Prober) ProbeURL(ctx context.Context, rawURL string) (int, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return SentinelStatus, PlaceholderTitle
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("Probe failed", logger.Fields{"url": rawURL, "error": err})
		return SentinelStatus, PlaceholderTitle
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	return resp.StatusCode, extractTitle(body)
}

func extractTitle(body []byte) string {
	match := titleRe.FindSubmatch(body)
	if match == nil {
		return ""
	}
	title := strings.TrimSpace(strings.Join(strings.Fields(string(match[1])), " "))
	// Truncate on runes so a multibyte title never splits mid-character.
	if runes := []rune(title); len(runes) > maxTitleLen {
		title = string(runes[:maxTitleLen])
	}
	return title
}

// ResolveIP resolves a hostname to its first IP address, empty when
// resolution fails. Ingestion substitutes the empty value instead of
// failing the row.
func ResolveIP(host string) string {
	addrs, err := net.LookupHost(host)
	if err != nil || len(addrs) == 0 {
		return ""
	}
	return addrs[0]
}
