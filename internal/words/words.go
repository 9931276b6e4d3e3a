// internal/words/words.go
//
// Word list management for the evaluation service and guess validation.
//
// Responsibilities:
//   - Load answer and allowed guess lists from configured files or fall back to the
//     lists embedded in the assets package.
//   - Maintain a lookup set for allowed guesses (answers ∪ guesses).
//   - Supply RandomAnswer, Answers, IsAllowed and Stats.
//
// Initialization behavior (Init):
//   1. Both paths set: answers from the first, allowed guesses from the second.
//   2. Only the allowed path set: that file serves as both lists.
//   3. Neither set: embedded defaults.
//
// Constraints:
//   • Words must be 5 alphabetic letters (a–z); anything else is dropped.
//   • Lists are normalized to lowercase.
//   • Initialization runs once (sync.Once).

package words

import (
	"bufio"
	"crypto/rand"
	"errors"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/wordle-session/assets"
)

var (
	initOnce   sync.Once
	answers    []string            // canonical answers
	allowedSet map[string]struct{} // answers ∪ guesses
	initialErr error
)

// Init loads word lists exactly once.
// Returns an error if the answers list ends up empty.
func Init(answersPath, allowedPath string) error {
	initOnce.Do(func() {
		ansList, allowList, err := load(answersPath, allowedPath)
		if err != nil {
			initialErr = err
			return
		}

		answers = ansList
		// Ensure all answers are also marked as allowed
		allowedSet = toSet(ansList)
		for _, w := range allowList {
			allowedSet[w] = struct{}{}
		}

		if len(answers) == 0 {
			initialErr = errors.New("words: answers list is empty")
		}
	})
	return initialErr
}

func load(answersPath, allowedPath string) (ansList, allowList []string, err error) {
	switch {
	case answersPath != "" && allowedPath != "":
		if ansList, err = readWordFile(answersPath); err != nil {
			return nil, nil, err
		}
		allowList, err = readWordFile(allowedPath)
		return ansList, allowList, err

	case allowedPath != "":
		allowList, err = readWordFile(allowedPath)
		return allowList, allowList, err

	default:
		lines, err := assets.AnswersList()
		if err != nil {
			return nil, nil, err
		}
		ansList = normalize(lines)
		lines, err = assets.AllowedList()
		if err != nil {
			return nil, nil, err
		}
		return ansList, normalize(lines), nil
	}
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return normalize(lines), sc.Err()
}

// normalize lowercases and trims lines, keeping valid 5-letter alphabetic words.
func normalize(lines []string) []string {
	var out []string
	for _, line := range lines {
		w := strings.TrimSpace(strings.ToLower(line))
		if len(w) == 5 && IsAlpha(w) {
			out = append(out, w)
		}
	}
	return out
}

// toSet converts a list of strings into a lookup set.
func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}

// IsAlpha reports whether s is all lowercase ASCII letters.
func IsAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// Answers returns the loaded answer list.
func Answers() []string { return answers }

// RandomAnswer returns a cryptographically random answer from the answers list.
// If answers are not loaded yet or empty, falls back to "crane".
func RandomAnswer() string {
	if len(answers) == 0 {
		return "crane"
	}
	nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(len(answers))))
	return answers[nBig.Int64()]
}

// IsAllowed reports whether w is a valid guess (answers ∪ guesses).
func IsAllowed(w string) bool {
	_, ok := allowedSet[strings.ToLower(w)]
	return ok
}

// Stats returns counts of loaded words: (answers, allowed).
func Stats() (answersCount int, allowedCount int) {
	return len(answers), len(allowedSet)
}
