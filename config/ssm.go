package config

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

var ErrParameterEmpty = errors.New("parameter has no value")

// parameterGetter is the subset of the SSM client used here.
type parameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ParameterStore reads decrypted values from AWS SSM Parameter Store.
type ParameterStore struct {
	client parameterGetter
}

// NewParameterStore uses the default AWS credential chain.
func NewParameterStore(ctx context.Context) (*ParameterStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &ParameterStore{client: ssm.NewFromConfig(cfg)}, nil
}

// Get returns the decrypted value of parameterName.
func (p *ParameterStore) Get(ctx context.Context, parameterName string) (string, error) {
	decrypt := true
	result, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &parameterName,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", parameterName, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("get parameter %s: %w", parameterName, ErrParameterEmpty)
	}

	return *result.Parameter.Value, nil
}

// valueOr returns the parameter value, or fallback when the name is unset or
// the lookup fails.
func (p *ParameterStore) valueOr(ctx context.Context, parameterName, fallback string) string {
	if parameterName == "" {
		return fallback
	}
	v, err := p.Get(ctx, parameterName)
	if err != nil {
		return fallback
	}
	return v
}
