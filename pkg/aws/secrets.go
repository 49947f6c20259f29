package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// DefaultSecretsName is the Secrets Manager entry holding the pos-service bundle.
const DefaultSecretsName = "pos-service/config"

// SecretValueAPI is the part of the Secrets Manager client the service uses.
type SecretValueAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ServiceSecrets is the credential bundle stored for the service. Empty fields
// leave the matching environment value in place.
type ServiceSecrets struct {
	JWTSecret   string `json:"JWT_SECRET"`
	DatabaseURL string `json:"DATABASE_URL"`
	RedisURL    string `json:"REDIS_URL"`
}

type SecretsClient struct {
	client SecretValueAPI
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	return &SecretsClient{client: secretsmanager.NewFromConfig(cfg)}
}

func NewSecretsClientWithAPI(client SecretValueAPI) *SecretsClient {
	return &SecretsClient{client: client}
}

// LoadServiceSecrets reads the named secret. A JSON object is decoded into the
// bundle; any other string is taken as the JWT secret alone.
func (s *SecretsClient) LoadServiceSecrets(ctx context.Context, name string) (*ServiceSecrets, error) {
	if name == "" {
		name = DefaultSecretsName
	}

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(name)})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", name)
	}

	raw := strings.TrimSpace(*out.SecretString)
	if !strings.HasPrefix(raw, "{") {
		return &ServiceSecrets{JWTSecret: raw}, nil
	}

	var secrets ServiceSecrets
	if err := json.Unmarshal([]byte(raw), &secrets); err != nil {
		return nil, fmt.Errorf("decode secret %s: %w", name, err)
	}
	return &secrets, nil
}
