package aws

import (
	"context"
	"errors"
	"testing"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	values    map[string]*string
	requested []string
}

func (f *fakeSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	name := sdkaws.ToString(params.SecretId)
	f.requested = append(f.requested, name)
	v, ok := f.values[name]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: v}, nil
}

func TestLoadServiceSecrets_Bundle(t *testing.T) {
	fake := &fakeSecrets{values: map[string]*string{
		DefaultSecretsName: sdkaws.String(`{"JWT_SECRET":"s3cret","DATABASE_URL":"postgres://db/pos"}`),
	}}

	secrets, err := NewSecretsClientWithAPI(fake).LoadServiceSecrets(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultSecretsName}, fake.requested)
	assert.Equal(t, "s3cret", secrets.JWTSecret)
	assert.Equal(t, "postgres://db/pos", secrets.DatabaseURL)
	assert.Empty(t, secrets.RedisURL)
}

func TestLoadServiceSecrets_PlainString(t *testing.T) {
	fake := &fakeSecrets{values: map[string]*string{"pos/jwt": sdkaws.String("  plain-secret\n")}}

	secrets, err := NewSecretsClientWithAPI(fake).LoadServiceSecrets(context.Background(), "pos/jwt")
	require.NoError(t, err)
	assert.Equal(t, &ServiceSecrets{JWTSecret: "plain-secret"}, secrets)
}

func TestLoadServiceSecrets_Errors(t *testing.T) {
	fake := &fakeSecrets{values: map[string]*string{
		"broken": sdkaws.String(`{"JWT_SECRET":`),
		"binary": nil,
	}}
	client := NewSecretsClientWithAPI(fake)

	_, err := client.LoadServiceSecrets(context.Background(), "missing")
	assert.Error(t, err)
	_, err = client.LoadServiceSecrets(context.Background(), "broken")
	assert.Error(t, err)
	_, err = client.LoadServiceSecrets(context.Background(), "binary")
	assert.Error(t, err)
}
