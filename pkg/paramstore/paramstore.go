// Package paramstore resolves secrets such as provider API keys from AWS
// Systems Manager Parameter Store. Values are fetched with decryption and
// cached for the life of the Store.
package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ErrMissingValue is returned when a parameter exists but carries no value.
var ErrMissingValue = errors.New("paramstore: parameter missing value")

// API is the subset of the SSM client the Store needs. *ssm.Client
// satisfies it.
type API interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter looks up one parameter by name.
type Getter interface {
	Get(ctx context.Context, name string) (string, error)
}

// Store is a caching Getter backed by SSM.
type Store struct {
	api API

	mu    sync.Mutex
	cache map[string]string
}

var _ Getter = (*Store)(nil)

// New creates a Store over api.
func New(api API) (*Store, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Store{api: api, cache: make(map[string]string)}, nil
}

// NewFromEnv builds a Store from the default AWS credential chain
// (environment, shared config, instance role).
func NewFromEnv(ctx context.Context) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("paramstore: load aws config: %w", err)
	}
	return New(ssm.NewFromConfig(cfg))
}

// Get returns the decrypted value of name.
func (s *Store) Get(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.cache[name]; ok {
		return v, nil
	}

	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("%w: %q", ErrMissingValue, name)
	}

	v := aws.ToString(out.Parameter.Value)
	s.cache[name] = v

	return v, nil
}
