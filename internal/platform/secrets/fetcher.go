// Package secrets resolves secret:// configuration references through Google Secret Manager.
package secrets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/api/option"
)

const meterName = "github.com/naga-sai1/inv-ecommerce/internal/platform/secrets"

// Overridden in tests.
var secretManagerClientFactory = func(ctx context.Context, opts ...option.ClientOption) (*secretmanager.Client, error) {
	return secretmanager.NewClient(ctx, opts...)
}

type secretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Fetcher resolves references through Secret Manager and caches the values for its lifetime.
// When Secret Manager refuses or cannot be reached, values come from a local fallback file.
type Fetcher struct {
	settings
	client     secretManagerClient
	ownsClient bool
	latency    metric.Float64Histogram

	inflight singleflight.Group
	mu       sync.RWMutex
	cache    map[string]string

	fallbackOnce sync.Once
	fallback     map[string]string
	fallbackErr  error
}

type settings struct {
	logger       *zap.Logger
	env          string
	project      string
	projects     map[string]string
	fallbackPath string
	meter        metric.Meter
	client       secretManagerClient
	clientOpts   []option.ClientOption
}

type Option func(*settings)

func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEnvironment picks the entry of the project map to use.
func WithEnvironment(env string) Option {
	return func(s *settings) { s.env = strings.ToLower(strings.TrimSpace(env)) }
}

// WithDefaultProject is used when the reference names no project and the environment has no
// mapping.
func WithDefaultProject(projectID string) Option {
	return func(s *settings) { s.project = strings.TrimSpace(projectID) }
}

// WithProjectMap maps environments to projects, e.g. {"prod": "shop-prod"}.
func WithProjectMap(m map[string]string) Option {
	return func(s *settings) {
		s.projects = make(map[string]string, len(m))
		for env, project := range m {
			s.projects[strings.ToLower(strings.TrimSpace(env))] = strings.TrimSpace(project)
		}
	}
}

func WithFallbackFile(path string) Option {
	return func(s *settings) { s.fallbackPath = strings.TrimSpace(path) }
}

func WithMeter(m metric.Meter) Option {
	return func(s *settings) { s.meter = m }
}

// WithSecretManagerClient supplies the client; the fetcher will not close it.
func WithSecretManagerClient(client secretManagerClient) Option {
	return func(s *settings) { s.client = client }
}

func WithClientOptions(opts ...option.ClientOption) Option {
	return func(s *settings) { s.clientOpts = append(s.clientOpts, opts...) }
}

// NewFetcher never fails because Secret Manager is unreachable; the fetcher then serves only
// the fallback file.
func NewFetcher(ctx context.Context, opts ...Option) (*Fetcher, error) {
	s := settings{logger: zap.NewNop(), env: "local", fallbackPath: ".secrets.local"}
	for _, opt := range opts {
		opt(&s)
	}
	if s.meter == nil {
		s.meter = otel.GetMeterProvider().Meter(meterName)
	}
	latency, err := s.meter.Float64Histogram("secrets.fetch.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency of secret resolution by source"),
	)
	if err != nil {
		return nil, fmt.Errorf("secrets: register latency metric: %w", err)
	}

	f := &Fetcher{settings: s, client: s.client, latency: latency, cache: map[string]string{}}
	if f.client == nil {
		client, err := secretManagerClientFactory(ctx, s.clientOpts...)
		if err != nil {
			s.logger.Warn("secret manager unavailable, serving fallback file only", zap.Error(err))
			return f, nil
		}
		f.client, f.ownsClient = client, true
	}
	return f, nil
}

func (f *Fetcher) Close() error {
	if f.ownsClient {
		return f.client.Close()
	}
	return nil
}

// ResolveSecret satisfies config.SecretResolver.
func (f *Fetcher) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f.Resolve(ctx, ref)
}

// Resolve returns the value of ref. Concurrent misses for one reference share a single remote
// call.
func (f *Fetcher) Resolve(ctx context.Context, raw string) (string, error) {
	start := time.Now()
	ref, err := parseReference(raw)
	if err != nil {
		return "", err
	}
	key := ref.cacheKey()
	if value, ok := f.cached(key); ok {
		f.observe(ctx, start, "cache")
		return value, nil
	}

	var source string
	v, err, _ := f.inflight.Do(key, func() (any, error) {
		if value, ok := f.cached(key); ok {
			source = "cache"
			return value, nil
		}
		value, src, err := f.load(ctx, ref)
		if err == nil {
			f.mu.Lock()
			f.cache[key] = value
			f.mu.Unlock()
		}
		source = src
		return value, err
	})
	if source == "" {
		source = "shared"
	}
	f.observe(ctx, start, source)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (f *Fetcher) cached(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	value, ok := f.cache[key]
	return value, ok
}

func (f *Fetcher) load(ctx context.Context, ref reference) (value, source string, err error) {
	if project := f.projectFor(ref); project != "" && f.client != nil {
		value, err := f.access(ctx, ref.resource(project))
		if err == nil {
			return value, "remote", nil
		}
		if !canFallBack(err) {
			return "", "error", fmt.Errorf("secrets: fetch %s: %w", ref.canonical(), err)
		}
		f.logger.Debug("secret manager refused, trying fallback file",
			zap.String("ref", ref.canonical()), zap.Error(err))
	}

	f.fallbackOnce.Do(func() { f.fallback, f.fallbackErr = readFallback(f.fallbackPath) })
	if f.fallbackErr != nil {
		return "", "error", f.fallbackErr
	}
	value, ok := f.fallback[ref.canonical()]
	if !ok {
		return "", "error", fmt.Errorf("secrets: no fallback value for %s", ref.canonical())
	}
	return value, "fallback", nil
}

func (f *Fetcher) access(ctx context.Context, name string) (string, error) {
	resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", err
	}
	if resp.GetPayload() == nil {
		return "", fmt.Errorf("secret manager returned no payload for %s", name)
	}
	return string(resp.GetPayload().GetData()), nil
}

func (f *Fetcher) projectFor(ref reference) string {
	switch {
	case ref.project != "":
		return ref.project
	case f.projects[f.env] != "":
		return f.projects[f.env]
	default:
		return f.project
	}
}

func (f *Fetcher) observe(ctx context.Context, start time.Time, source string) {
	ms := float64(time.Since(start)) / float64(time.Millisecond)
	f.latency.Record(ctx, ms, metric.WithAttributes(attribute.String("source", source)))
}
