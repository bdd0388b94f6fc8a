package domain

import "fmt"

// Alphabet holds the 27 letters a question list cycles through, one per
// question index. The Spanish alphabet is used: ñ included, ch and ll not.
var Alphabet = [MaxQuestions]string{
	"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m",
	"n", "ñ", "o", "p", "q", "r", "s", "t", "u", "v", "w", "x", "y", "z",
}

// Letter returns the letter tag for a question index.
func Letter(index int) (string, error) {
	if index < 0 || index >= len(Alphabet) {
		return "", fmt.Errorf("letter index out of range [0,%d]: %d", len(Alphabet)-1, index)
	}
	return Alphabet[index], nil
}
