package runner

import (
	"io"
	"os"

	"github.com/mfateev/hostsh/internal/execenv"
)

// Option passes extra settings through to process creation.
type Option func(*options)

type options struct {
	dir    string
	env    []string
	policy *execenv.Policy
	stdin  io.Reader
}

// WithDir sets the working directory of the child.
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithEnv adds "KEY=VALUE" entries on top of the inherited environment.
func WithEnv(entries ...string) Option {
	return func(o *options) { o.env = append(o.env, entries...) }
}

// WithEnvPolicy filters the inherited environment before WithEnv entries
// are added.
func WithEnvPolicy(p *execenv.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithStdin connects r to the child's standard input.
func WithStdin(r io.Reader) Option {
	return func(o *options) { o.stdin = r }
}

func collectOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// environ returns the child environment, or nil to inherit unchanged.
func (o *options) environ() []string {
	switch {
	case o.policy != nil:
		return append(o.policy.Build(), o.env...)
	case len(o.env) > 0:
		return append(os.Environ(), o.env...)
	default:
		return nil
	}
}
