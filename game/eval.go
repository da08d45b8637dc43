package game

// Evaluate scores a non-terminal position between -1 and 1 from the
// perspective of the player to move: positive values favor that player.
type Evaluate func(State) float64

// Neutral evaluates every position as even.
func Neutral(State) float64 { return 0 }

// Normalize scores value relative to otherValue to a number between -1 and 1.
func Normalize(value float64, otherValue float64) float64 {
	total := value + otherValue
	if total == 0 {
		return 0
	}
	return (value - otherValue) / total
}
