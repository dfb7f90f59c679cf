// Package validation verifies that externally hosted services are
// reachable at startup. Every backing service is optional in
// development; UOLINK_REQUIRE_* environment variables promote them to
// hard requirements so a misconfigured production deploy fails fast
// instead of limping along.
package validation

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/cache"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/storage"
	"github.com/elastic/go-elasticsearch/v9"
	"go.uber.org/zap"
)

// ServiceValidator checks reachability of the backing services the
// deploy declared required.
type ServiceValidator struct {
	requiredServices []string
}

// NewServiceValidator reads the UOLINK_REQUIRE_* toggles.
func NewServiceValidator() *ServiceValidator {
	return &ServiceValidator{
		requiredServices: parseRequiredServices(),
	}
}

// ValidateServices probes each required service and returns the first
// failure. A nil error means every required service answered.
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	if len(sv.requiredServices) == 0 {
		logger.Log.Info("No required services configured for validation")
		return nil
	}

	logger.Log.Info("Validating required services",
		zap.Strings("services", sv.requiredServices),
	)

	checks := sv.serviceChecks()

	for _, name := range sv.requiredServices {
		check, ok := checks[name]
		if !ok {
			logger.Log.Warn("Unknown service type in validation",
				zap.String("service", name),
			)
			continue
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := check(timeoutCtx)
		cancel()
		if err != nil {
			logger.Log.Error("Required service validation failed",
				zap.String("service", name),
				zap.Error(err),
			)
			return fmt.Errorf("required service %q validation failed: %w", name, err)
		}

		logger.Log.Info("Service validated",
			zap.String("service", name),
		)
	}

	return nil
}

func (sv *ServiceValidator) serviceChecks() map[string]func(ctx context.Context) error {
	return map[string]func(ctx context.Context) error{
		"elasticsearch": validateElasticsearch,
		"r2":            validateR2,
		"redis":         validateRedis,
	}
}

// validateElasticsearch pings the cluster used for note and user search.
func validateElasticsearch(ctx context.Context) error {
	esURL := os.Getenv("ELASTICSEARCH_URL")
	if esURL == "" {
		esURL = "http://localhost:9200"
	}

	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}
	if username := os.Getenv("ELASTICSEARCH_USERNAME"); username != "" {
		cfg.Username = username
		cfg.Password = os.Getenv("ELASTICSEARCH_PASSWORD")
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch returned error status: %s", res.Status())
	}
	return nil
}

// validateR2 confirms the note file bucket accepts our credentials.
func validateR2(ctx context.Context) error {
	client, err := storage.NewR2Client(storage.R2Config{
		Endpoint:        os.Getenv("R2_ENDPOINT"),
		AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		Bucket:          os.Getenv("R2_BUCKET"),
		PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize R2 client: %w", err)
	}

	if err := client.CheckBucketAccess(ctx); err != nil {
		return fmt.Errorf("R2 bucket access check failed: %w", err)
	}
	return nil
}

// validateRedis opens and pings a throwaway connection.
func validateRedis(ctx context.Context) error {
	host := os.Getenv("REDIS_HOST")
	port := os.Getenv("REDIS_PORT")
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}

	client, err := cache.NewRedisClient(host, port, os.Getenv("REDIS_PASSWORD"))
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer client.Close()

	return nil
}

// parseRequiredServices reads the UOLINK_REQUIRE_* toggles and returns
// the services that must be reachable.
func parseRequiredServices() []string {
	var required []string

	services := []string{"elasticsearch", "r2", "redis"}
	for _, service := range services {
		envVar := fmt.Sprintf("UOLINK_REQUIRE_%s", strings.ToUpper(service))
		if isTruthy(os.Getenv(envVar)) {
			required = append(required, service)
		}
	}

	return required
}

func isTruthy(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}
