package adaptive

// Engine implements the adaptive difficulty loop: the cursor steps up after a
// correct answer and down after an incorrect one, clamped to the scale for
// the session's test type.
type Engine struct {
	config *Config
}

// NewEngine creates an engine. A nil config uses the defaults.
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{config: config}
}

func (e *Engine) Config() *Config {
	return e.config
}

// StartDifficulty is the cursor position for a fresh session.
func (e *Engine) StartDifficulty() int {
	return e.config.StartDifficulty
}

// MaxFor returns the difficulty ceiling for a test type. Practice tests are
// capped below the official scale.
func (e *Engine) MaxFor(testType string) int {
	if testType == "practice" {
		return e.config.MaxPractice
	}
	return e.config.MaxOfficial
}

// NextDifficulty moves the cursor one step based on correctness and clamps
// it. For any run of all-correct answers the cursor is non-decreasing and
// bounded by the max; for all-incorrect, non-increasing and bounded below.
func (e *Engine) NextDifficulty(current int, wasCorrect bool, testType string) int {
	next := current
	if wasCorrect {
		next += e.config.Step
	} else {
		next -= e.config.Step
	}
	if max := e.MaxFor(testType); next > max {
		next = max
	}
	if next < e.config.MinDifficulty {
		next = e.config.MinDifficulty
	}
	return next
}

// Bands yields the selection bands to try in order: the configured tolerance
// around the cursor first, then progressively wider ranges until the whole
// scale is covered. The selector walks these until one contains an unseen
// question; only then is the bank considered exhausted.
func (e *Engine) Bands(current int, testType string) []Band {
	max := e.MaxFor(testType)
	min := e.config.MinDifficulty

	var bands []Band
	for width := e.config.BandTolerance; width <= e.config.MaxBandWidth; width++ {
		b := Band{Min: current - width, Max: current + width}
		if b.Min < min {
			b.Min = min
		}
		if b.Max > max {
			b.Max = max
		}
		if len(bands) > 0 && bands[len(bands)-1] == b {
			continue
		}
		bands = append(bands, b)
		if b.Min == min && b.Max == max {
			break
		}
	}
	return bands
}
