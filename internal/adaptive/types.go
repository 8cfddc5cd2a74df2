package adaptive

// Band is an inclusive difficulty range the selector may draw from.
type Band struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether a difficulty falls inside the band.
func (b Band) Contains(difficulty int) bool {
	return difficulty >= b.Min && difficulty <= b.Max
}

// Config holds the tunables of the adaptive difficulty loop.
type Config struct {
	StartDifficulty int `json:"start_difficulty"`
	MinDifficulty   int `json:"min_difficulty"`
	// Practice tests never climb past MaxPractice; official tests run the
	// full scale up to MaxOfficial.
	MaxPractice int `json:"max_practice"`
	MaxOfficial int `json:"max_official"`
	// Step is how far the cursor moves after each answer.
	Step int `json:"step"`
	// BandTolerance is the initial half-width of the selection band around
	// the cursor. MaxBandWidth bounds progressive widening when no question
	// matches.
	BandTolerance int `json:"band_tolerance"`
	MaxBandWidth  int `json:"max_band_width"`
}

// DefaultConfig matches the shipped test product: start in the middle of the
// scale, exact-difficulty selection first, widen up to the full scale.
func DefaultConfig() *Config {
	return &Config{
		StartDifficulty: 5,
		MinDifficulty:   1,
		MaxPractice:     8,
		MaxOfficial:     10,
		Step:            1,
		BandTolerance:   0,
		MaxBandWidth:    9,
	}
}
