package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"plantcare-backend/internal/domain/models"
	"plantcare-backend/internal/infrastructure/cache"
	"plantcare-backend/pkg/logger"
)

// stubClient 可编程的上游客户端替身
type stubClient struct {
	calls       int
	lastPayload map[string]any
	response    json.RawMessage
	err         error
}

func (s *stubClient) Identify(ctx context.Context, payload map[string]any) (json.RawMessage, error) {
	s.calls++
	s.lastPayload = payload
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

// passthroughNormalizer 原样透传的规整器替身
type passthroughNormalizer struct{}

func (passthroughNormalizer) Normalize(raw json.RawMessage) *models.NormalizedResult {
	name := "Ficus lyrata"
	return &models.NormalizedResult{
		Provider:       models.ProviderName,
		RawResponse:    raw,
		ScientificName: &name,
	}
}

func newTestService(client *stubClient) *IdentifyService {
	log := logger.Default()
	return NewIdentifyService(client, passthroughNormalizer{}, cache.NewMemoryStore(log), time.Hour, log)
}

func TestIdentifyCachesResult(t *testing.T) {
	client := &stubClient{response: json.RawMessage(`{"result": {}}`)}
	service := newTestService(client)
	ctx := context.Background()

	req := &models.IdentifyRequest{ImageData: []byte("image-bytes")}

	first, err := service.Identify(ctx, req)
	if err != nil {
		t.Fatalf("first Identify() error = %v", err)
	}

	second, err := service.Identify(ctx, req)
	if err != nil {
		t.Fatalf("second Identify() error = %v", err)
	}

	if client.calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (second request served from cache)", client.calls)
	}
	if *first.ScientificName != *second.ScientificName {
		t.Error("cached result differs from original")
	}
}

func TestIdentifyHealthFlagChangesFingerprint(t *testing.T) {
	client := &stubClient{response: json.RawMessage(`{}`)}
	service := newTestService(client)
	ctx := context.Background()

	if _, err := service.Identify(ctx, &models.IdentifyRequest{ImageData: []byte("img")}); err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if _, err := service.Identify(ctx, &models.IdentifyRequest{ImageData: []byte("img"), CheckHealth: true}); err != nil {
		t.Fatalf("Identify() error = %v", err)
	}

	if client.calls != 2 {
		t.Errorf("upstream calls = %d, want 2 (health flag is part of the key)", client.calls)
	}
}

func TestIdentifyValidation(t *testing.T) {
	tests := []struct {
		name string
		req  *models.IdentifyRequest
	}{
		{name: "neither image nor url", req: &models.IdentifyRequest{}},
		{name: "both image and url", req: &models.IdentifyRequest{ImageData: []byte("x"), ImageURL: "https://img"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{}
			service := newTestService(client)

			_, err := service.Identify(context.Background(), tt.req)

			var validationErr *models.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if client.calls != 0 {
				t.Error("validation failure must not reach upstream")
			}
		})
	}
}

func TestIdentifyPayloadShape(t *testing.T) {
	ctx := context.Background()

	t.Run("image bytes go into images array", func(t *testing.T) {
		client := &stubClient{response: json.RawMessage(`{}`)}
		service := newTestService(client)

		lat := 48.85
		if _, err := service.Identify(ctx, &models.IdentifyRequest{
			ImageData:   []byte("raw-bytes"),
			CheckHealth: true,
			Latitude:    &lat,
		}); err != nil {
			t.Fatalf("Identify() error = %v", err)
		}

		images, ok := client.lastPayload["images"].([]string)
		if !ok || len(images) != 1 {
			t.Fatalf("images = %v, want single base64 entry", client.lastPayload["images"])
		}
		if decoded, err := base64.StdEncoding.DecodeString(images[0]); err != nil || string(decoded) != "raw-bytes" {
			t.Errorf("images[0] = %q, want base64 of the upload", images[0])
		}
		if _, ok := client.lastPayload["image_url"]; ok {
			t.Error("image_url must be absent for byte uploads")
		}
		if client.lastPayload["health"] != "all" {
			t.Errorf("health = %v, want all", client.lastPayload["health"])
		}
		if client.lastPayload["latitude"] != lat {
			t.Errorf("latitude = %v, want %v", client.lastPayload["latitude"], lat)
		}
	})

	t.Run("url goes into image_url field", func(t *testing.T) {
		client := &stubClient{response: json.RawMessage(`{}`)}
		service := newTestService(client)

		if _, err := service.Identify(ctx, &models.IdentifyRequest{ImageURL: "https://example.org/plant.jpg"}); err != nil {
			t.Fatalf("Identify() error = %v", err)
		}

		if client.lastPayload["image_url"] != "https://example.org/plant.jpg" {
			t.Errorf("image_url = %v, want the request url", client.lastPayload["image_url"])
		}
		if _, ok := client.lastPayload["images"]; ok {
			t.Error("images must be absent for url requests")
		}
		if _, ok := client.lastPayload["health"]; ok {
			t.Error("health must be absent when health check not requested")
		}
	})
}

func TestIdentifyUpstreamErrorPropagates(t *testing.T) {
	wantErr := errors.New("boom")
	client := &stubClient{err: wantErr}
	service := newTestService(client)

	_, err := service.Identify(context.Background(), &models.IdentifyRequest{ImageURL: "https://img"})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want wrapped upstream error", err)
	}
}

func TestIdentifyMetrics(t *testing.T) {
	client := &stubClient{response: json.RawMessage(`{}`)}
	service := newTestService(client)
	ctx := context.Background()

	service.Identify(ctx, &models.IdentifyRequest{ImageData: []byte("a")})
	service.Identify(ctx, &models.IdentifyRequest{ImageData: []byte("a")}) // 缓存命中
	service.Identify(ctx, &models.IdentifyRequest{})                       // 校验失败

	snapshot := service.Metrics()
	if snapshot.Requests != 3 {
		t.Errorf("Requests = %d, want 3", snapshot.Requests)
	}
	if snapshot.Successes != 2 {
		t.Errorf("Successes = %d, want 2", snapshot.Successes)
	}
	if snapshot.Failures != 1 {
		t.Errorf("Failures = %d, want 1", snapshot.Failures)
	}
}

func TestFingerprintStability(t *testing.T) {
	service := newTestService(&stubClient{})

	a := service.Fingerprint(&models.IdentifyRequest{ImageData: []byte("same")})
	b := service.Fingerprint(&models.IdentifyRequest{ImageData: []byte("same")})
	c := service.Fingerprint(&models.IdentifyRequest{ImageData: []byte("other")})

	if a != b {
		t.Error("identical requests must map to the same fingerprint")
	}
	if a == c {
		t.Error("different images must map to different fingerprints")
	}
	if got := service.Fingerprint(&models.IdentifyRequest{ImageURL: "https://img"}); got == a {
		t.Error("url-based requests must not collide with byte-based ones by accident")
	}
}
