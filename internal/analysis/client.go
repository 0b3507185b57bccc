package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/scontreeno/scontreeno/pkg/logging"
)

const apiVersion = "2024-11-30"

// Analyzer is the capability interface the pipeline consumes.
type Analyzer interface {
	Analyze(ctx context.Context, doc io.Reader) (*AnalyzeResult, error)
}

// Client submits documents to the Document Intelligence REST API and waits
// for the long-running operation to complete.
type Client struct {
	endpoint     string
	key          string
	modelID      string
	pollInterval time.Duration
	timeout      time.Duration
	httpClient   *http.Client
	logger       *logging.Logger
}

// Config configures a Client.
type Config struct {
	Endpoint     string
	Key          string
	ModelID      string
	PollInterval time.Duration
	Timeout      time.Duration
}

// New creates a document-analysis client.
func New(cfg Config, logger *logging.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("analysis: endpoint required")
	}
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, errors.New("analysis: key required")
	}
	if cfg.ModelID == "" {
		cfg.ModelID = "prebuilt-receipt"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		key:          cfg.Key,
		modelID:      cfg.ModelID,
		pollInterval: cfg.PollInterval,
		timeout:      cfg.Timeout,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}, nil
}

var _ Analyzer = (*Client)(nil)

type operationStatus struct {
	Status        string          `json:"status"`
	AnalyzeResult *AnalyzeResult  `json:"analyzeResult"`
	Error         *operationError `json:"error"`
}

type operationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Analyze submits the document bytes and blocks until the operation reports
// completion or failure, bounded by the configured timeout.
func (c *Client) Analyze(ctx context.Context, doc io.Reader) (*AnalyzeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opLocation, err := c.begin(ctx, doc)
	if err != nil {
		return nil, err
	}

	return c.poll(ctx, opLocation)
}

func (c *Client) begin(ctx context.Context, doc io.Reader) (string, error) {
	url := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s", c.endpoint, c.modelID, apiVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, doc)
	if err != nil {
		return "", fmt.Errorf("analysis: build analyze request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("analysis: submit document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("analysis: submit document: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	opLocation := resp.Header.Get("Operation-Location")
	if opLocation == "" {
		return "", errors.New("analysis: missing Operation-Location header")
	}
	return opLocation, nil
}

func (c *Client) poll(ctx context.Context, opLocation string) (*AnalyzeResult, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("analysis: operation wait: %w", ctx.Err())
		case <-ticker.C:
		}

		status, err := c.fetchStatus(ctx, opLocation)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case "succeeded":
			if status.AnalyzeResult == nil {
				return nil, errors.New("analysis: operation succeeded without a result")
			}
			return status.AnalyzeResult, nil
		case "failed":
			if status.Error != nil {
				return nil, fmt.Errorf("analysis: operation failed: %s: %s", status.Error.Code, status.Error.Message)
			}
			return nil, errors.New("analysis: operation failed")
		case "running", "notStarted":
			c.logger.Debug("analysis operation pending", "status", status.Status)
		default:
			return nil, fmt.Errorf("analysis: unexpected operation status %q", status.Status)
		}
	}
}

func (c *Client) fetchStatus(ctx context.Context, opLocation string) (*operationStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opLocation, nil)
	if err != nil {
		return nil, fmt.Errorf("analysis: build status request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis: fetch operation status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("analysis: fetch operation status: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var status operationStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("analysis: decode operation status: %w", err)
	}
	return &status, nil
}
