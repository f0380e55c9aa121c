package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/naga-sai1/inv-ecommerce/internal/platform/auth"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/config"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/events"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/secrets"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
	"github.com/naga-sai1/inv-ecommerce/internal/services"
)

// orderEvents is the optional Pub/Sub side of order placement. All fields are nil when no topic
// is configured.
type orderEvents struct {
	client    *pubsub.Client
	topic     *pubsub.Topic
	publisher *events.PubSubOrderPublisher
	checks    []repositories.DependencyCheck
}

func newOrderEvents(ctx context.Context, cfg config.Config) (*orderEvents, error) {
	topicID := strings.TrimSpace(cfg.Events.OrderTopic)
	if topicID == "" {
		return &orderEvents{}, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.Firestore.ProjectID, auth.ClientOptions(cfg.Firebase)...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	topic := client.Topic(topicID)
	publisher, err := events.NewPubSubOrderPublisher(topic)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("order publisher: %w", err)
	}
	return &orderEvents{
		client:    client,
		topic:     topic,
		publisher: publisher,
		checks: []repositories.DependencyCheck{{
			Name:    "pubsub",
			Timeout: time.Second,
			Check: func(ctx context.Context) error {
				ok, err := topic.Exists(ctx)
				if err == nil && !ok {
					err = fmt.Errorf("topic %s does not exist", topicID)
				}
				return err
			},
		}},
	}, nil
}

// close flushes pending publishes before closing the client. Later calls do nothing.
func (e *orderEvents) close(logger *zap.Logger) {
	if e.client == nil {
		return
	}
	e.topic.Stop()
	closeLogged(logger, "pubsub", e.client.Close)
	e.client = nil
}

// newAuthenticator refuses every bearer token when no Firebase project is configured.
func newAuthenticator(ctx context.Context, logger *zap.Logger, cfg config.Config) (*auth.Authenticator, error) {
	opts := []auth.Option{auth.WithAdminEmails(cfg.Admin.Emails...)}
	if cfg.Firebase.ProjectID == "" {
		logger.Warn("firebase project not configured; bearer tokens will be rejected")
		return auth.NewAuthenticator(nil, opts...), nil
	}
	verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		return nil, fmt.Errorf("firebase verifier: %w", err)
	}
	return auth.NewAuthenticator(verifier, opts...), nil
}

func buildInfoFromEnv(env map[string]string, cfg config.Config, started time.Time) services.BuildInfo {
	return services.BuildInfo{
		Version:     envOr(env, "API_BUILD_VERSION", "dev"),
		CommitSHA:   envOr(env, "API_BUILD_COMMIT_SHA", "unknown"),
		Environment: orDefault(cfg.Security.Environment, "local"),
		StartedAt:   started,
	}
}

func traceProjectID(cfg config.Config) string {
	return orDefault(cfg.Firebase.ProjectID, strings.TrimSpace(cfg.Firestore.ProjectID))
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	opts := []secrets.Option{
		secrets.WithEnvironment(envOr(env, "API_SECURITY_ENVIRONMENT", "local")),
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(envOr(env, "API_SECRET_FALLBACK_FILE", ".secrets.local")),
		secrets.WithMeter(otel.GetMeterProvider().Meter(meterName)),
	}
	if projects := parseProjectMap(env["API_SECRET_PROJECT_IDS"]); len(projects) > 0 {
		opts = append(opts, secrets.WithProjectMap(projects))
	}
	if project := envOr(env, "API_SECRET_DEFAULT_PROJECT_ID", strings.TrimSpace(env["API_FIREBASE_PROJECT_ID"])); project != "" {
		opts = append(opts, secrets.WithDefaultProject(project))
	}
	if file := strings.TrimSpace(env["API_FIREBASE_CREDENTIALS_FILE"]); file != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(file)))
	}
	return secrets.NewFetcher(ctx, opts...)
}

// requiredSecretNames makes inline Firebase credentials mandatory once they are set, so an
// unresolvable reference fails startup.
func requiredSecretNames(env map[string]string) []string {
	if strings.TrimSpace(env["API_FIREBASE_CREDENTIALS_JSON"]) == "" {
		return nil
	}
	return []string{"Firebase.CredentialsJSON"}
}

// parseProjectMap reads "env=project" pairs separated by commas.
func parseProjectMap(raw string) map[string]string {
	projects := map[string]string{}
	for _, entry := range strings.Split(raw, ",") {
		label, project, ok := strings.Cut(entry, "=")
		label = strings.ToLower(strings.TrimSpace(label))
		project = strings.TrimSpace(project)
		if ok && label != "" && project != "" {
			projects[label] = project
		}
	}
	return projects
}

func envOr(env map[string]string, key, fallback string) string {
	return orDefault(env[key], fallback)
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return fallback
}
