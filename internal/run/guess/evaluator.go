// Package guess scores a word guess against a target word.
package guess

import "fmt"

// LetterState classifies a single guessed letter.
type LetterState string

const (
	StateCorrect LetterState = "correct"
	StatePresent LetterState = "present"
	StateAbsent  LetterState = "absent"
)

// LetterEvaluation pairs a guessed letter with its state.
type LetterEvaluation struct {
	Letter string      `json:"letter"`
	State  LetterState `json:"state"`
}

// Evaluation is the full result for one guess.
type Evaluation struct {
	Letters   []LetterEvaluation `json:"letters"`
	Pattern   string             `json:"pattern"`
	IsCorrect bool               `json:"is_correct"`
}

// ErrLengthMismatch is returned when guess and target differ in length.
type ErrLengthMismatch struct {
	GuessLen  int
	TargetLen int
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("guess length %d does not match target length %d", e.GuessLen, e.TargetLen)
}

// Evaluate compares a guess against the target word.
//
// Two passes. Pass 1 marks exact positional matches and consumes those
// target positions. Pass 2 walks the remaining guess letters and, for
// each, scans the target left to right for the first unconsumed position
// holding that letter; a hit is marked present and consumes the target
// position, otherwise the letter is absent. The left-to-right consumption
// order is the tie-break for repeated letters and must not be reordered.
//
// Pattern encoding: correct->'2', present->'1', absent->'0', in guess order.
func Evaluate(guessWord, target string) (Evaluation, error) {
	gr := []rune(guessWord)
	tr := []rune(target)
	if len(gr) != len(tr) {
		return Evaluation{}, &ErrLengthMismatch{GuessLen: len(gr), TargetLen: len(tr)}
	}

	letters := make([]LetterEvaluation, len(gr))
	consumed := make([]bool, len(tr))

	for i := range gr {
		letters[i] = LetterEvaluation{Letter: string(gr[i]), State: StateAbsent}
		if gr[i] == tr[i] {
			letters[i].State = StateCorrect
			consumed[i] = true
		}
	}

	for i := range gr {
		if letters[i].State != StateAbsent {
			continue
		}
		for j := range tr {
			if !consumed[j] && tr[j] == gr[i] {
				letters[i].State = StatePresent
				consumed[j] = true
				break
			}
		}
	}

	pattern := make([]byte, len(letters))
	correct := true
	for i, entry := range letters {
		switch entry.State {
		case StateCorrect:
			pattern[i] = '2'
		case StatePresent:
			pattern[i] = '1'
			correct = false
		default:
			pattern[i] = '0'
			correct = false
		}
	}

	return Evaluation{
		Letters:   letters,
		Pattern:   string(pattern),
		IsCorrect: correct,
	}, nil
}

// PatternLetters rehydrates per-letter states from a stored pattern string.
func PatternLetters(guessWord, pattern string) []LetterEvaluation {
	gr := []rune(guessWord)
	pr := []rune(pattern)
	letters := make([]LetterEvaluation, len(gr))
	for i, r := range gr {
		state := StateAbsent
		if i < len(pr) {
			switch pr[i] {
			case '2':
				state = StateCorrect
			case '1':
				state = StatePresent
			}
		}
		letters[i] = LetterEvaluation{Letter: string(r), State: state}
	}
	return letters
}
