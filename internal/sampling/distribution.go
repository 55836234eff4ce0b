package sampling

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"
)

// Kind names a distribution family in configuration.
type Kind string

const (
	KindUniform Kind = "uniform"
	KindBeta    Kind = "beta"
	KindCustom  Kind = "custom"
)

// Distribution draws n values in [0,1]. Lower values address earlier elements
// of a sorted population.
type Distribution interface {
	Sample(n int) []float64
}

// DistributionFunc adapts a plain function to Distribution.
type DistributionFunc func(n int) []float64

// Sample implements Distribution.
func (f DistributionFunc) Sample(n int) []float64 { return f(n) }

// Spec is the serializable description of a distribution. Custom
// distributions carry no parameters and are supplied in code via Custom.
type Spec struct {
	Kind  Kind
	Alpha float64
	Beta  float64
}

// Validate checks that the spec can be built.
func (s Spec) Validate() error {
	switch s.Kind {
	case KindUniform:
		return nil
	case KindBeta:
		if s.Alpha <= 0 || s.Beta <= 0 {
			return fmt.Errorf("%w: beta distribution needs alpha > 0 and beta > 0, got alpha=%v beta=%v",
				ErrInvalidArgument, s.Alpha, s.Beta)
		}
		return nil
	case KindCustom:
		return fmt.Errorf("%w: custom distributions cannot be built from configuration", ErrInvalidArgument)
	default:
		return fmt.Errorf("%w: unknown distribution kind %q", ErrInvalidArgument, s.Kind)
	}
}

// Build returns the Distribution described by the spec, drawing from src.
func (s Spec) Build(src rand.Source) (Distribution, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Kind == KindBeta {
		return Beta(s.Alpha, s.Beta, src), nil
	}
	return Uniform(src), nil
}

// String renders the spec for logs and reports.
func (s Spec) String() string {
	if s.Kind == KindBeta {
		return fmt.Sprintf("beta(a=%g, b=%g)", s.Alpha, s.Beta)
	}
	return string(s.Kind)
}

// Skew describes which end of a sorted population the spec favors.
func (s Spec) Skew() string {
	if s.Kind != KindBeta {
		return "uniform"
	}
	switch {
	case s.Alpha < s.Beta:
		return "right-skewed, sampling lower indices"
	case s.Alpha > s.Beta:
		return "left-skewed, sampling higher indices"
	default:
		return "symmetric, sampling middle indices"
	}
}

// Uniform draws sorted values uniformly from [0,1].
func Uniform(src rand.Source) Distribution {
	u := distuv.Uniform{Min: 0, Max: 1, Src: src}
	return DistributionFunc(func(n int) []float64 {
		return draw(n, u.Rand)
	})
}

// Beta draws sorted values from Beta(alpha, beta). alpha < beta biases
// toward low values, alpha > beta toward high values.
func Beta(alpha, beta float64, src rand.Source) Distribution {
	b := distuv.Beta{Alpha: alpha, Beta: beta, Src: src}
	return DistributionFunc(func(n int) []float64 {
		return draw(n, b.Rand)
	})
}

// Custom wraps a caller-provided distribution function.
func Custom(fn func(n int) []float64) Distribution {
	return DistributionFunc(fn)
}

func draw(n int, next func() float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = next()
	}
	slices.Sort(out)
	return out
}
