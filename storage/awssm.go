package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"

	"github.com/dsbgw/dsb-client-gateway/interfaces"
)

// AWSSecretsStore keeps the private key in AWS Secrets Manager. Credentials
// come from the standard AWS chain (environment, shared config, instance
// role).
type AWSSecretsStore struct {
	client   *secretsmanager.SecretsManager
	secretID string
	log      *slog.Logger
}

// NewAWSSecretsStore creates an AWS Secrets Manager backed secret store for
// the named secret in the given region.
func NewAWSSecretsStore(region, secretID string, log *slog.Logger) (*AWSSecretsStore, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &AWSSecretsStore{
		client:   secretsmanager.New(sess),
		secretID: secretID,
		log:      log,
	}, nil
}

// GetPrivateKey fetches the current secret value.
func (s *AWSSecretsStore) GetPrivateKey(ctx context.Context) (string, error) {
	out, err := s.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretID),
	})
	if err != nil {
		if isAWSNotFound(err) {
			return "", interfaces.ErrNoPrivateKey
		}
		return "", fmt.Errorf("failed to read secret %s: %w", s.secretID, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", interfaces.ErrNoPrivateKey
	}
	return *out.SecretString, nil
}

// SetPrivateKey writes a new secret value, creating the secret on first use.
func (s *AWSSecretsStore) SetPrivateKey(ctx context.Context, privateKey string) error {
	_, err := s.client.PutSecretValueWithContext(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(s.secretID),
		SecretString: aws.String(privateKey),
	})
	if err == nil {
		s.log.Debug("Updated private key secret", slog.String("secretID", s.secretID))
		return nil
	}
	if !isAWSNotFound(err) {
		return fmt.Errorf("failed to update secret %s: %w", s.secretID, err)
	}

	_, err = s.client.CreateSecretWithContext(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(s.secretID),
		SecretString: aws.String(privateKey),
	})
	if err != nil {
		return fmt.Errorf("failed to create secret %s: %w", s.secretID, err)
	}

	s.log.Debug("Created private key secret", slog.String("secretID", s.secretID))
	return nil
}

// Name identifies the backend in logs.
func (s *AWSSecretsStore) Name() string {
	return fmt.Sprintf("awssm-%s", s.secretID)
}

func isAWSNotFound(err error) bool {
	if aerr, ok := err.(awserr.Error); ok {
		return aerr.Code() == secretsmanager.ErrCodeResourceNotFoundException
	}
	return false
}
