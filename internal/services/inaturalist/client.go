package inaturalist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"naturatag/internal/config"
	"naturatag/internal/logging"
	"naturatag/internal/services"
	"naturatag/internal/species"
)

const (
	scoreImagePath   = "/v1/computervision/score_image"
	observationsPath = "/v1/observations"
	usersMePath      = "/v1/users/me"
)

// HTTPDoer describes the HTTP client used by the iNaturalist service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption customises Client construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(client HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// Client calls the iNaturalist API with the managed bearer token.
type Client struct {
	baseURL    string
	userAgent  string
	foldMode   species.FoldMode
	httpClient HTTPDoer
	tokens     *TokenManager
	logger     *slog.Logger
}

// NewClient builds a Client from configuration.
func NewClient(cfg *config.Config, tokens *TokenManager, logger *slog.Logger, opts ...ClientOption) *Client {
	client := &Client{
		baseURL:   strings.TrimRight(cfg.INaturalist.BaseURL, "/"),
		userAgent: cfg.INaturalist.UserAgent,
		foldMode:  species.FoldMode(cfg.Identify.AccentFolding),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.INaturalist.RequestTimeout) * time.Second,
		},
		tokens: tokens,
		logger: logging.WithComponent(logger, "inaturalist"),
	}

	for _, opt := range opts {
		opt(client)
	}
	return client
}

type scoreImageResponse struct {
	Results []struct {
		CombinedScore float64 `json:"combined_score"`
		Taxon         struct {
			Name                string `json:"name"`
			PreferredCommonName string `json:"preferred_common_name"`
		} `json:"taxon"`
	} `json:"results"`
}

// ScoreImage uploads the JPEG at imagePath to the vision scorer and returns
// the candidate list. An empty list with a nil error means the API recognized
// nothing; callers must treat that differently from a failure.
func (c *Client) ScoreImage(ctx context.Context, imagePath string) ([]species.Candidate, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, services.Wrap(services.ErrPrecondition, "inaturalist", "score_image", "", err)
	}

	body, contentType, err := fileUploadBody("image", imagePath, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrPrecondition, "inaturalist", "score_image", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+scoreImagePath, body)
	if err != nil {
		return nil, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	c.setCommonHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrNoResponse, "inaturalist", "score_image", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, services.Wrap(services.ErrInvalidResponse, "inaturalist", "score_image",
			fmt.Sprintf("endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	var parsed scoreImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, services.Wrap(services.ErrInvalidResponse, "inaturalist", "score_image", "invalid response format", err)
	}

	candidates := make([]species.Candidate, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		common := strings.TrimSpace(result.Taxon.PreferredCommonName)
		if common == "" {
			common = species.UnknownName
		} else {
			common = species.FoldAccents(common, c.foldMode)
		}
		latin := strings.TrimSpace(result.Taxon.Name)
		if latin == "" {
			latin = species.UnknownName
		}
		candidates = append(candidates, species.Candidate{
			CommonName: common,
			LatinName:  latin,
			Confidence: result.CombinedScore,
		})
	}

	c.logger.Debug("scored image",
		logging.String(logging.FieldPhoto, filepath.Base(imagePath)),
		logging.Int("candidates", len(candidates)),
	)
	return candidates, nil
}

// VerifyToken performs the optional live check against /v1/users/me and
// returns the account login on success. Only invoked on explicit request;
// the local timestamp check remains the canonical freshness test.
func (c *Client) VerifyToken(ctx context.Context) (string, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return "", services.Wrap(services.ErrPrecondition, "inaturalist", "verify_token", "", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+usersMePath, nil)
	if err != nil {
		return "", fmt.Errorf("build verify request: %w", err)
	}
	c.setCommonHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrNoResponse, "inaturalist", "verify_token", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", services.Wrap(services.ErrInvalidResponse, "inaturalist", "verify_token",
			fmt.Sprintf("endpoint returned %d", resp.StatusCode), nil)
	}

	var parsed struct {
		Results []struct {
			Login string `json:"login"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", services.Wrap(services.ErrInvalidResponse, "inaturalist", "verify_token", "invalid response format", err)
	}
	if len(parsed.Results) == 0 {
		return "", services.Wrap(services.ErrInvalidResponse, "inaturalist", "verify_token", "no account in response", nil)
	}
	return parsed.Results[0].Login, nil
}

func (c *Client) setCommonHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
}

// fileUploadBody builds a multipart body with one file part named fieldName
// holding the bytes at path, plus any extra plain fields.
func fileUploadBody(fieldName, path string, fields map[string]string) (*bytes.Buffer, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read upload file: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", key, err)
		}
	}
	part, err := writer.CreateFormFile(fieldName, filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
