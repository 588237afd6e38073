package reconciler

import (
	"github.com/agentstation/leadrecon/pkg/errors"
)

// options configures a reconciler.
type options struct {
	strategy Strategy
	policy   MatchPolicy
}

func defaultOptions() *options {
	return &options{
		strategy: NewMostRecentStrategy(),
		policy:   MatchPolicyFirst,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns reconciler options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithStrategy sets the conflict-resolution strategy.
func WithStrategy(strategy Strategy) Option {
	return func(o *options) error {
		if strategy == nil {
			return &errors.ValidationError{
				Field:   "strategy",
				Message: "cannot be nil",
			}
		}
		o.strategy = strategy
		return nil
	}
}

// WithMatchPolicy sets the duplicate matching policy.
func WithMatchPolicy(policy MatchPolicy) Option {
	return func(o *options) error {
		switch policy {
		case MatchPolicyFirst:
			o.policy = policy
			return nil
		default:
			return &errors.ValidationError{
				Field:   "match_policy",
				Value:   string(policy),
				Message: "unsupported match policy",
			}
		}
	}
}
