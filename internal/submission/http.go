package submission

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AaronLay10/BrewSim/internal/simulation"
)

// DefaultTimeout bounds a single backend POST.
const DefaultTimeout = 10 * time.Second

// TransportError is returned when the backend is unreachable or answers
// with a non-2xx status. StatusCode is 0 when no response was received.
type TransportError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("submit %s: %s", e.URL, e.Message)
	}
	return fmt.Sprintf("submit %s: status %d: %s", e.URL, e.StatusCode, e.Message)
}

// HTTPGateway posts score records to the scoring backend as form data.
type HTTPGateway struct {
	Address string
	Token   string
	Client  *http.Client
}

// NewHTTPGateway returns a gateway for the backend at address. Address is
// the prefix the user ID is appended to, e.g. "https://scores.example/users/".
func NewHTTPGateway(address, token string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPGateway{
		Address: address,
		Token:   token,
		Client:  &http.Client{Timeout: timeout},
	}
}

// URL returns the submission target for a user and kind.
func (g *HTTPGateway) URL(userID string, kind simulation.Kind) string {
	addr := g.Address
	if addr != "" && !strings.HasSuffix(addr, "/") {
		addr += "/"
	}
	return addr + url.PathEscape(userID) + "/" + simulation.Endpoint(kind)
}

// Submit sends rec as <field>Score / <field>ScoreTotal form fields.
func (g *HTTPGateway) Submit(ctx context.Context, userID string, kind simulation.Kind, rec simulation.Record) error {
	if g.Address == "" {
		return fmt.Errorf("submission backend address not configured")
	}
	if userID == "" {
		return fmt.Errorf("submission requires a user ID")
	}

	target := g.URL(userID, kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(EncodeForm(rec).Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	client := g.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return &TransportError{URL: target, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &TransportError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	return nil
}

// EncodeForm converts rec into the backend's form fields.
func EncodeForm(rec simulation.Record) url.Values {
	form := url.Values{}
	for _, e := range rec.Entries {
		form.Set(e.Field+"Score", strconv.Itoa(e.Score))
		form.Set(e.Field+"ScoreTotal", strconv.Itoa(e.MaxScore))
	}
	return form
}
