package score

// Difficulty is one rung of the ordered ladder.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

var ladder = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert}

const (
	escalateMean   = 85.0
	deescalateMean = 50.0
	windowSize     = 3
)

// ValidDifficulty reports whether d names a rung of the ladder.
func ValidDifficulty(d Difficulty) bool {
	return rung(d) >= 0
}

func rung(d Difficulty) int {
	for i, r := range ladder {
		if r == d {
			return i
		}
	}
	return -1
}

// Decide looks at the trailing overall scores and returns the next difficulty
// plus whether it changed. It needs at least two scores, averages the last
// three non-zero entries, and never moves more than one rung at a time.
func Decide(recentScores []int, current Difficulty) (Difficulty, bool) {
	answered := make([]int, 0, len(recentScores))
	for _, s := range recentScores {
		if s > 0 {
			answered = append(answered, s)
		}
	}
	if len(answered) < 2 {
		return current, false
	}
	if len(answered) > windowSize {
		answered = answered[len(answered)-windowSize:]
	}

	sum := 0
	for _, s := range answered {
		sum += s
	}
	mean := float64(sum) / float64(len(answered))

	idx := rung(current)
	if idx < 0 {
		return current, false
	}
	switch {
	case mean >= escalateMean && idx < len(ladder)-1:
		return ladder[idx+1], true
	case mean < deescalateMean && idx > 0:
		return ladder[idx-1], true
	default:
		return current, false
	}
}
