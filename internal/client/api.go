// Package client talks to the career-coach API and carries the per-action
// state, upload checks and fallbacks of the interactive front end.
package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spigell/career-coach/internal/coach"
	"go.uber.org/zap"
)

const (
	defaultBaseURL  = "http://localhost:8080"
	userAgent       = "spigell/career-coach"
	contentType     = "application/json"
	contentEncoding = "gzip"

	analyzePath = "/api/analyze-resume"
	roadmapPath = "/api/roadmap"
)

// APIError is a non-success answer from the API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bad status: %s", e.Status)
	}
	return fmt.Sprintf("bad status: %s: %s", e.Status, e.Message)
}

// API is an HTTP client for the coaching routes.
type API struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
}

func New(logger *zap.Logger, baseURL, token string) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &API{
		token:   strings.TrimSpace(token),
		logger:  logger,
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		UserAgent: userAgent,
	}
}

type analyzeRequest struct {
	File     string `json:"file"`
	FileName string `json:"fileName"`
}

type roadmapRequest struct {
	Role string `json:"role"`
}

type roadmapResponse struct {
	OK      bool           `json:"ok"`
	Roadmap *coach.Roadmap `json:"roadmap"`
	Error   string         `json:"error"`
}

// AnalyzeResume uploads the document and returns the server's analysis.
func (c *API) AnalyzeResume(ctx context.Context, fileName string, data []byte) (coach.AnalysisResult, error) {
	var result coach.AnalysisResult
	err := c.postJSON(ctx, analyzePath, analyzeRequest{
		File:     base64.StdEncoding.EncodeToString(data),
		FileName: fileName,
	}, &result)
	if err != nil {
		return coach.AnalysisResult{}, err
	}
	return result, nil
}

// GenerateRoadmap asks the server for a roadmap for role.
func (c *API) GenerateRoadmap(ctx context.Context, role string) (coach.Roadmap, error) {
	var resp roadmapResponse
	if err := c.postJSON(ctx, roadmapPath, roadmapRequest{Role: role}, &resp); err != nil {
		return coach.Roadmap{}, err
	}
	if !resp.OK {
		msg := resp.Error
		if msg == "" {
			msg = "API returned error"
		}
		return coach.Roadmap{}, errors.New(msg)
	}
	if resp.Roadmap == nil {
		return coach.Roadmap{}, errors.New("API returned no roadmap")
	}
	return *resp.Roadmap, nil
}

func (c *API) postJSON(ctx context.Context, path string, payload, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return newAPIError(resp, data)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newAPIError(resp *http.Response, data []byte) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		apiErr.Message = body.Error
	}
	return apiErr
}

func (c *API) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	return c.HTTPClient.Do(req)
}

func (c *API) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}
