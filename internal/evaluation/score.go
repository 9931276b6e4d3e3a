// internal/evaluation/score.go
//
// Guess scoring for the evaluation service.
//
// Notes:
//   - Uses the classic two-pass Wordle algorithm so repeated letters are handled:
//     exact hits first, then "present" marks limited by the remaining letter counts.
//   - Inputs are expected to be lowercase a–z of equal length; callers validate.

package evaluation

// mark is the evaluation of one guess position.
type mark uint8

const (
	markMiss mark = iota
	markPresent
	markHit
)

// Score compares guess against target and returns the indices of exact matches and the
// indices whose letter occurs elsewhere in the target.
func Score(target, guess string) (correct, contained []uint8) {
	correct, contained = []uint8{}, []uint8{}
	if len(target) != len(guess) {
		return correct, contained
	}
	for i, m := range scoreGuess(target, guess) {
		switch m {
		case markHit:
			correct = append(correct, uint8(i))
		case markPresent:
			contained = append(contained, uint8(i))
		}
	}
	return correct, contained
}

// scoreGuess marks every position of guess.
//
// Pass 1: mark exact matches and count the answer letters left unmatched.
// Pass 2: a non-hit letter is present while unmatched copies of it remain.
func scoreGuess(answer, guess string) []mark {
	n := len(guess)
	res := make([]mark, n)

	var counts [26]int
	for i := 0; i < n; i++ {
		if guess[i] == answer[i] {
			res[i] = markHit
		} else if j := idx(answer[i]); j >= 0 {
			counts[j]++
		}
	}

	for i := 0; i < n; i++ {
		if res[i] == markHit {
			continue
		}
		if j := idx(guess[i]); j >= 0 && counts[j] > 0 {
			res[i] = markPresent
			counts[j]--
		}
	}
	return res
}

// idx maps a lowercase ASCII letter to 0..25, or -1.
func idx(b byte) int {
	if b < 'a' || b > 'z' {
		return -1
	}
	return int(b - 'a')
}
