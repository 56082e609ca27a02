package forest

import "runtime"

// Config controls random forest training.
type Config struct {
	// NumTrees is the number of trees in the ensemble.
	NumTrees int `koanf:"trees" validate:"min=1"`

	// MaxDepth bounds the depth of every tree. The root is depth 0.
	MaxDepth int `koanf:"max_depth" validate:"min=1"`

	// MinSamplesSplit is the minimum number of samples a node needs to be
	// considered for splitting.
	MinSamplesSplit int `koanf:"min_samples_split" validate:"min=2"`

	// MinSamplesLeaf is the minimum number of samples on each side of a
	// split.
	MinSamplesLeaf int `koanf:"min_samples_leaf" validate:"min=1"`

	// MaxFeatures is the number of features drawn per split. Zero means
	// floor(sqrt(number of features)).
	MaxFeatures int `koanf:"max_features" validate:"min=0"`

	// Bootstrap samples each tree's training set with replacement.
	Bootstrap bool `koanf:"bootstrap"`

	// BalancedClassWeight weights each class by n / (2 * class count).
	BalancedClassWeight bool `koanf:"balanced_class_weight"`

	// Seed makes training deterministic. Each tree derives its own seed, so
	// the result does not depend on Workers.
	Seed int64 `koanf:"seed"`

	// Workers is the number of trees fitted concurrently.
	Workers int `koanf:"workers" validate:"min=0"`
}

// DefaultConfig returns the configuration used for eligibility models.
func DefaultConfig() Config {
	return Config{
		NumTrees:            200,
		MaxDepth:            8,
		MinSamplesSplit:     50,
		MinSamplesLeaf:      20,
		Bootstrap:           true,
		BalancedClassWeight: true,
		Seed:                42,
		Workers:             runtime.NumCPU(),
	}
}
