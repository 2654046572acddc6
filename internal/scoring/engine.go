package scoring

// Config holds the scoring constants. Defaults award 4 points for a correct
// answer plus 1 point for every consecutive correct answer before it.
type Config struct {
	BasePoints     int // default: 4
	StreakStep     int // default: 1 point per prior consecutive correct answer
	MaxStreakBonus int // 0 means uncapped
}

// DefaultConfig returns the production scoring constants.
func DefaultConfig() Config {
	return Config{
		BasePoints: 4,
		StreakStep: 1,
	}
}

// Engine computes per-answer points.
type Engine struct {
	config Config
}

// NewEngine creates a scoring engine with the provided config.
func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

// Points returns what an answer is worth given the streak held before it.
// Formula: base + streak * step (bonus optionally capped). Wrong answers score 0.
func (e *Engine) Points(isCorrect bool, streakBefore int) int {
	if !isCorrect {
		return 0
	}
	if streakBefore < 0 {
		streakBefore = 0
	}

	bonus := streakBefore * e.config.StreakStep
	if e.config.MaxStreakBonus > 0 && bonus > e.config.MaxStreakBonus {
		bonus = e.config.MaxStreakBonus
	}
	return e.config.BasePoints + bonus
}

// Accuracy is the correct/total ratio, 0 for an empty quiz.
func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total)
}
