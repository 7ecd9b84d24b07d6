package ask

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	v1 "github.com/kiosk404/echoloop/internal/echoloop/handler/v1"
	"github.com/kiosk404/echoloop/internal/echoloop/service/activity/domain/entity"
	"github.com/kiosk404/echoloop/internal/pkg/core"
	"github.com/kiosk404/echoloop/pkg/utils/json"
)

// EventCallback is called for each event of a streamed activity.
type EventCallback func(ev *entity.ActivityEvent)

// Client talks to the /v1/activities API of an echoloop server.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a new client. A nil httpClient gets a two minute timeout.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: httpClient,
	}
}

func (c *Client) newRequest(ctx context.Context, path string, req *v1.RunActivityRequest) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return httpReq, nil
}

// Run starts an activity and waits for its result.
func (c *Client) Run(ctx context.Context, req *v1.RunActivityRequest) (*entity.ActivityResult, error) {
	httpReq, err := c.newRequest(ctx, "/v1/activities", req)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, serverError(resp.StatusCode, respBody)
	}

	var result entity.ActivityResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &result, nil
}

// RunStream starts an activity over SSE, calling cb for every event, and
// returns the result carried by the done event.
func (c *Client) RunStream(ctx context.Context, req *v1.RunActivityRequest, cb EventCallback) (*entity.ActivityResult, error) {
	httpReq, err := c.newRequest(ctx, "/v1/activities/stream", req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, serverError(resp.StatusCode, respBody)
	}

	scanner := bufio.NewScanner(resp.Body)
	// Done events carry the whole conversation state.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			continue
		case line != "":
			// id: and event: lines; the event type is repeated in the payload.
			continue
		}
		if data.Len() == 0 {
			continue
		}

		var ev entity.ActivityEvent
		err := json.UnmarshalFromString(data.String(), &ev)
		data.Reset()
		if err != nil {
			continue
		}
		if cb != nil {
			cb(&ev)
		}
		switch ev.Type {
		case entity.EventError:
			return nil, fmt.Errorf("activity %s failed: %s", ev.ActivityID, ev.Error)
		case entity.EventDone:
			if ev.Result == nil {
				return nil, errors.New("done event without a result")
			}
			return ev.Result, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	return nil, errors.New("stream ended without a result")
}

func serverError(status int, body []byte) error {
	var errResp core.ErrResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return fmt.Errorf("server returned %d (code %d): %s: %s", status, errResp.Code, errResp.Message, errResp.Detail)
	}
	return fmt.Errorf("server returned %d: %s", status, strings.TrimSpace(string(body)))
}
