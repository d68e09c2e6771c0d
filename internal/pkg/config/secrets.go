// internal/pkg/config/secrets.go
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsProvider resolves credentials by key
type SecretsProvider interface {
	GetSecret(ctx context.Context, key string) (string, error)
	GetSecrets(ctx context.Context, keys []string) (map[string]string, error)
}

var _ SecretsProvider = (*AWSSecretsManager)(nil)

// AWSSecretsManager reads a JSON key/value secret from AWS Secrets Manager
type AWSSecretsManager struct {
	client     secretsAPI
	secretName string
	cache      map[string]string
	cacheMu    sync.RWMutex
	lastFetch  time.Time
	ttl        time.Duration
	logger     *slog.Logger
}

type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// NewAWSSecretsManager creates a new AWS Secrets Manager client
func NewAWSSecretsManager(ctx context.Context, region, secretName string, logger *slog.Logger) (*AWSSecretsManager, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newAWSSecretsManager(secretsmanager.NewFromConfig(cfg), secretName, logger), nil
}

func newAWSSecretsManager(client secretsAPI, secretName string, logger *slog.Logger) *AWSSecretsManager {
	return &AWSSecretsManager{
		client:     client,
		secretName: secretName,
		cache:      make(map[string]string),
		ttl:        5 * time.Minute,
		logger:     logger.With(slog.String("component", "secrets")),
	}
}

// GetSecret retrieves a single secret
func (sm *AWSSecretsManager) GetSecret(ctx context.Context, key string) (string, error) {
	secrets, err := sm.GetSecrets(ctx, []string{key})
	if err != nil {
		return "", err
	}

	val, ok := secrets[key]
	if !ok {
		return "", fmt.Errorf("secret key %s not found", key)
	}

	return val, nil
}

// GetSecrets retrieves multiple secrets
func (sm *AWSSecretsManager) GetSecrets(ctx context.Context, keys []string) (map[string]string, error) {
	if cached, ok := sm.cached(keys); ok {
		sm.logger.Debug("returning cached secrets")
		return cached, nil
	}

	// Fetch from AWS
	sm.logger.Info("fetching secrets from AWS Secrets Manager",
		slog.String("secret_name", sm.secretName))

	input := &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(sm.secretName),
		VersionStage: aws.String("AWSCURRENT"),
	}

	result, err := sm.client.GetSecretValue(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get secret value: %w", err)
	}

	if result.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", sm.secretName)
	}

	// Parse the secret
	var secretData map[string]string
	if err := json.Unmarshal([]byte(*result.SecretString), &secretData); err != nil {
		return nil, fmt.Errorf("failed to parse secret JSON: %w", err)
	}

	// Update cache
	sm.cacheMu.Lock()
	sm.cache = secretData
	sm.lastFetch = time.Now()
	sm.cacheMu.Unlock()

	// Filter requested keys
	filtered := make(map[string]string)
	for _, key := range keys {
		if val, ok := secretData[key]; ok {
			filtered[key] = val
		} else {
			sm.logger.Warn("secret key not found in AWS Secrets Manager",
				slog.String("key", key))
		}
	}

	return filtered, nil
}

// cached returns the requested keys when the cache is fresh and holds all of them
func (sm *AWSSecretsManager) cached(keys []string) (map[string]string, bool) {
	sm.cacheMu.RLock()
	defer sm.cacheMu.RUnlock()

	if time.Since(sm.lastFetch) >= sm.ttl || len(sm.cache) == 0 {
		return nil, false
	}
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		val, ok := sm.cache[key]
		if !ok {
			return nil, false
		}
		out[key] = val
	}
	return out, true
}
