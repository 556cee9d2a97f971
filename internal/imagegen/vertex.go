package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"

	"livewall-backend-go/internal/models"
)

const (
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

	// Portrait, phone-shaped output.
	defaultAspectRatio    = "9:16"
	defaultNegativePrompt = "blurry, low-resolution, ugly, deformed, text, watermark"
)

// ErrNoImage is returned when the model answers without an image.
var ErrNoImage = errors.New("model returned no image")

// VertexConfig identifies the Imagen model endpoint.
type VertexConfig struct {
	ProjectID string
	Location  string
	Model     string
	// Endpoint overrides https://{location}-aiplatform.googleapis.com.
	Endpoint string
}

// VertexGenerator calls the Vertex AI Imagen predict endpoint.
type VertexGenerator struct {
	httpClient *http.Client
	predictURL string
}

// NewVertexGenerator builds an authenticated client from the given Google API options.
func NewVertexGenerator(ctx context.Context, cfg VertexConfig, opts ...option.ClientOption) (*VertexGenerator, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("vertex: project ID is required")
	}
	opts = append([]option.ClientOption{option.WithScopes(cloudPlatformScope)}, opts...)
	client, endpoint, err := htransport.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vertex: create authenticated client: %w", err)
	}
	if cfg.Endpoint != "" {
		endpoint = cfg.Endpoint
	}
	return newVertexGenerator(client, endpoint, cfg), nil
}

func newVertexGenerator(client *http.Client, endpoint string, cfg VertexConfig) *VertexGenerator {
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s-aiplatform.googleapis.com", cfg.Location)
	}
	return &VertexGenerator{
		httpClient: client,
		predictURL: fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
			endpoint, cfg.ProjectID, cfg.Location, cfg.Model),
	}
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	SampleCount    int    `json:"sampleCount"`
	AspectRatio    string `json:"aspectRatio"`
	NegativePrompt string `json:"negativePrompt"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MIMEType           string `json:"mimeType"`
	} `json:"predictions"`
}

// Generate produces one image for prompt.
func (g *VertexGenerator) Generate(ctx context.Context, prompt string) (*models.GeneratedImage, error) {
	body, err := json.Marshal(predictRequest{
		Instances: []predictInstance{{Prompt: prompt}},
		Parameters: predictParameters{
			SampleCount:    1,
			AspectRatio:    defaultAspectRatio,
			NegativePrompt: defaultNegativePrompt,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.predictURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vertex: predict request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("vertex: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vertex: predict returned status %d", resp.StatusCode)
	}

	var out predictResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("vertex: decode response: %w", err)
	}
	if len(out.Predictions) == 0 || out.Predictions[0].BytesBase64Encoded == "" {
		return nil, ErrNoImage
	}

	data, err := base64.StdEncoding.DecodeString(out.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, fmt.Errorf("vertex: decode image: %w", err)
	}
	mimeType := out.Predictions[0].MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return &models.GeneratedImage{MIMEType: mimeType, Data: data}, nil
}
