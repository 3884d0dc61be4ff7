package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const batchesPath = "/translator/text/batch/v1.0/batches"

// ErrJobNotFound is returned by Status when the engine does not know
// the job identifier.
var ErrJobNotFound = errors.New("translation job not found")

// Client submits document-translation jobs to the external engine and
// polls their status. Job identity lives in the engine; the client
// keeps no state.
type Client struct {
	endpoint   string
	key        string
	httpClient *http.Client
}

func NewClient(endpoint, key string) *Client {
	return &Client{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		key:      strings.TrimSpace(key),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// JobStatus is the engine's view of an asynchronous translation job.
type JobStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdDateTimeUtc"`
	LastUpdated string `json:"lastActionDateTimeUtc"`
	Summary     struct {
		Total   int `json:"total"`
		Success int `json:"success"`
		Failed  int `json:"failed"`
	} `json:"summary"`
}

type batchRequest struct {
	Inputs []batchInput `json:"inputs"`
}

type batchInput struct {
	StorageType string        `json:"storageType"`
	Source      batchSource   `json:"source"`
	Targets     []batchTarget `json:"targets"`
}

type batchSource struct {
	SourceURL string `json:"sourceUrl"`
}

type batchTarget struct {
	TargetURL string `json:"targetUrl"`
	Language  string `json:"language"`
}

type engineErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Start submits a translation job for one document and returns the
// engine-assigned job identifier. Submission is not idempotent, so a
// failure is reported as-is rather than retried.
func (c *Client) Start(ctx context.Context, sourceURL, targetURL, targetLang string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("translator client is nil")
	}
	if strings.TrimSpace(targetLang) == "" {
		return "", fmt.Errorf("target language is required")
	}

	body, err := json.Marshal(batchRequest{
		Inputs: []batchInput{{
			StorageType: "File",
			Source:      batchSource{SourceURL: sourceURL},
			Targets: []batchTarget{{
				TargetURL: targetURL,
				Language:  targetLang,
			}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal batch request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+batchesPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build batch request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	httpReq.Header.Set("X-ClientTraceId", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send batch request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read batch response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", engineError(resp.StatusCode, respBody)
	}

	operationLocation := strings.TrimSpace(resp.Header.Get("Operation-Location"))
	if operationLocation == "" {
		return "", fmt.Errorf("batch response missing Operation-Location header")
	}
	jobID, err := jobIDFromOperationLocation(operationLocation)
	if err != nil {
		return "", err
	}
	return jobID, nil
}

// Status fetches the current state of a job from the engine.
func (c *Client) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	if c == nil {
		return nil, fmt.Errorf("translator client is nil")
	}
	trimmed := strings.TrimSpace(jobID)
	if trimmed == "" {
		return nil, fmt.Errorf("job id is required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+batchesPath+"/"+url.PathEscape(trimmed), nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send status request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read status response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrJobNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, engineError(resp.StatusCode, respBody)
	}

	var status JobStatus
	if err := json.Unmarshal(respBody, &status); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	return &status, nil
}

func engineError(statusCode int, body []byte) error {
	var errPayload engineErrorResponse
	if unmarshalErr := json.Unmarshal(body, &errPayload); unmarshalErr == nil {
		if msg := strings.TrimSpace(errPayload.Error.Message); msg != "" {
			return fmt.Errorf("translation engine status %d: %s", statusCode, msg)
		}
	}
	return fmt.Errorf("translation engine status %d: %s", statusCode, strings.TrimSpace(string(body)))
}

func jobIDFromOperationLocation(operationLocation string) (string, error) {
	parsed, err := url.Parse(operationLocation)
	if err != nil {
		return "", fmt.Errorf("parse Operation-Location: %w", err)
	}
	segments := strings.Split(strings.TrimRight(parsed.Path, "/"), "/")
	jobID := segments[len(segments)-1]
	if strings.TrimSpace(jobID) == "" {
		return "", fmt.Errorf("Operation-Location has no job id: %s", operationLocation)
	}
	return jobID, nil
}
