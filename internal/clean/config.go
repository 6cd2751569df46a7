package clean

import "strings"

// Weighting selects how neighbor values are averaged.
type Weighting string

const (
	WeightUniform  Weighting = "uniform"
	WeightDistance Weighting = "distance"
)

// ParseWeighting maps a config string to a Weighting; unknown values are uniform.
func ParseWeighting(s string) Weighting {
	if strings.EqualFold(strings.TrimSpace(s), string(WeightDistance)) {
		return WeightDistance
	}
	return WeightUniform
}

// Config tunes the imputer.
type Config struct {
	// Neighbors is k for the neighbor refinement.
	Neighbors int
	// MaxRows disables refinement on larger datasets. Zero means no limit.
	MaxRows   int
	Weighting Weighting
}

const (
	DefaultNeighbors = 5
	DefaultMaxRows   = 10000
)

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{Neighbors: DefaultNeighbors, MaxRows: DefaultMaxRows, Weighting: WeightUniform}
}

func (c Config) neighbors() int {
	if c.Neighbors < 1 {
		return DefaultNeighbors
	}
	return c.Neighbors
}
