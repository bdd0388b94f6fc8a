package domain

// GameRecord is the per-player result of one finished game.
type GameRecord struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Passed    int `json:"passed"`
	TotalTime int `json:"totalTime"` // seconds
}

// TotalAnswered is the number of questions the player actually answered.
func (r GameRecord) TotalAnswered() int {
	return r.Correct + r.Incorrect
}

// ScorePercentage returns the share of answered questions that were correct.
func (r GameRecord) ScorePercentage() float64 {
	total := r.TotalAnswered()
	if total == 0 {
		return 0
	}
	return float64(r.Correct) * 100 / float64(total)
}
