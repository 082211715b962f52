package srs

// Params defines the configurable constants of the SM-2 algorithm.
type Params struct {
	// MinEaseFactor is the floor the ease factor can never drop below.
	MinEaseFactor float64

	// PassThreshold is the lowest quality rating counted as a correct answer.
	PassThreshold int

	// FirstInterval is the interval in days after the first correct answer.
	FirstInterval int

	// SecondInterval is the interval in days after the second consecutive
	// correct answer.
	SecondInterval int
}

// ParamsConfig allows overriding the default parameters when creating a new
// Params instance. Zero values fall back to the defaults.
type ParamsConfig struct {
	MinEaseFactor  float64
	PassThreshold  int
	FirstInterval  int
	SecondInterval int
}

// NewDefaultParams creates a Params instance with the standard SM-2 values.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:  1.3,
		PassThreshold:  3,
		FirstInterval:  1,
		SecondInterval: 6,
	}
}

// NewParams creates a Params instance with custom configuration.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.PassThreshold > 0 {
		params.PassThreshold = config.PassThreshold
	}
	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}

	return params
}
