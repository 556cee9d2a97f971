package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/projects/proj/locations/us-central1/publishers/google/models/imagegeneration@005:predict", r.URL.Path)
		var req predictRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "neon city", req.Instances[0].Prompt)
		assert.Equal(t, 1, req.Parameters.SampleCount)
		assert.Equal(t, "9:16", req.Parameters.AspectRatio)
		assert.Equal(t, defaultNegativePrompt, req.Parameters.NegativePrompt)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"predictions": []map[string]string{{
				"bytesBase64Encoded": base64.StdEncoding.EncodeToString([]byte("img")),
				"mimeType":           "image/png",
			}},
		})
	}))
	defer srv.Close()

	g := newVertexGenerator(srv.Client(), srv.URL, VertexConfig{ProjectID: "proj", Location: "us-central1", Model: "imagegeneration@005"})
	img, err := g.Generate(context.Background(), "neon city")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, []byte("img"), img.Data)
}

func TestVertexGenerateErrors(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":[]}`))
	}))
	defer empty.Close()
	_, err := newVertexGenerator(empty.Client(), empty.URL, VertexConfig{ProjectID: "p", Location: "l", Model: "m"}).Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoImage)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer failing.Close()
	_, err = newVertexGenerator(failing.Client(), failing.URL, VertexConfig{ProjectID: "p", Location: "l", Model: "m"}).Generate(context.Background(), "x")
	assert.ErrorContains(t, err, "429")
}

func TestPlaceholderGenerator(t *testing.T) {
	a, err := PlaceholderGenerator{}.Generate(context.Background(), "sunset")
	require.NoError(t, err)
	b, err := PlaceholderGenerator{}.Generate(context.Background(), "sunset")
	require.NoError(t, err)
	assert.Equal(t, a.Data, b.Data)

	img, err := png.Decode(bytes.NewReader(a.Data))
	require.NoError(t, err)
	assert.Equal(t, 90, img.Bounds().Dx())
	assert.Equal(t, 160, img.Bounds().Dy())
}
