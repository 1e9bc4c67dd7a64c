package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gudong621/readaloud/pkg/errorsx"
	"github.com/gudong621/readaloud/pkg/resilience"
)

// Voice describes one catalogue entry from the service's voice list.
type Voice struct {
	Name           string `json:"Name"`
	ShortName      string `json:"ShortName"`
	Gender         string `json:"Gender"`
	Locale         string `json:"Locale"`
	SuggestedCodec string `json:"SuggestedCodec"`
	FriendlyName   string `json:"FriendlyName"`
	Status         string `json:"Status"`
}

// ListVoices fetches the voice catalogue over HTTPS. Transient
// failures are retried with the client's retry policy.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	var voices []Voice
	policy := resilience.NewRetryPolicy(c.cfg.VoicesRetries, c.cfg.VoicesRetryBackoff)
	err := policy.Do(ctx, func() error {
		var err error
		voices, err = fetchVoices(ctx, c.httpClient, c.cfg.VoiceListURL)
		return err
	})
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonVoicesFetch)
	}
	return voices, nil
}

func fetchVoices(ctx context.Context, client *http.Client, url string) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, resilience.RateLimitError{Endpoint: "voice-list", Message: resp.Status}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voice list: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var voices []Voice
	if err := json.Unmarshal(body, &voices); err != nil {
		return nil, fmt.Errorf("voice list: decode: %w", err)
	}
	return voices, nil
}
