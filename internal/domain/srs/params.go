package srs

// Default tuning values for the scheduler. They match the classic SM-2
// constants and are the values the course shipped with.
const (
	DefaultMinEasiness         = 1.3
	DefaultInitialInterval     = 1 // days, after the first successful review
	DefaultGraduationInterval  = 6 // days, after the second successful review
	DefaultPassThreshold       = 3 // quality ratings >= this count as a pass
	DefaultMasteryIntervalDays = 90
)

// Params defines all configurable parameters for the scheduling algorithm.
// A Params value is immutable for the lifetime of the Scheduler built from it.
type Params struct {
	// MinEasiness is the floor below which the easiness factor never drops,
	// bounding worst-case interval shrinkage.
	MinEasiness float64

	// InitialInterval is the fixed interval, in days, granted by the first
	// successful review.
	InitialInterval int

	// GraduationInterval is the fixed interval, in days, granted by the
	// second consecutive successful review. From the third on, intervals
	// grow multiplicatively with the easiness factor.
	GraduationInterval int

	// PassThreshold is the lowest quality rating that counts as a
	// successful recall. Ratings below it reset the item.
	PassThreshold int

	// MasteryIntervalDays is the interval at which a graduated item is
	// reported as mastered. It only affects stage classification, never
	// scheduling.
	MasteryIntervalDays int
}

// ParamsConfig allows overriding the default parameters when creating a new
// Params instance. Zero values keep the defaults.
type ParamsConfig struct {
	MinEasiness         float64
	InitialInterval     int
	GraduationInterval  int
	PassThreshold       int
	MasteryIntervalDays int
}

// NewDefaultParams creates a new Params instance with default values.
func NewDefaultParams() *Params {
	return &Params{
		MinEasiness:         DefaultMinEasiness,
		InitialInterval:     DefaultInitialInterval,
		GraduationInterval:  DefaultGraduationInterval,
		PassThreshold:       DefaultPassThreshold,
		MasteryIntervalDays: DefaultMasteryIntervalDays,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Unset (zero) fields fall back to the defaults.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEasiness > 0 {
		params.MinEasiness = config.MinEasiness
	}
	if config.InitialInterval > 0 {
		params.InitialInterval = config.InitialInterval
	}
	if config.GraduationInterval > 0 {
		params.GraduationInterval = config.GraduationInterval
	}
	if config.PassThreshold > 0 {
		params.PassThreshold = config.PassThreshold
	}
	if config.MasteryIntervalDays > 0 {
		params.MasteryIntervalDays = config.MasteryIntervalDays
	}

	return params
}
