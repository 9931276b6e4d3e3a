// internal/evaluation/picker.go
//
// Target word selection for the in-process evaluator: fixed, random or daily per player.

package evaluation

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"strings"
	"time"

	"github.com/robalobadob/wordle-session/internal/actor"
	"github.com/robalobadob/wordle-session/internal/words"
)

// TargetPicker selects the target word for a player's new game.
type TargetPicker interface {
	Pick(player actor.ID) string
}

// FixedPicker gives every player the same answer. Useful for tests and demos.
type FixedPicker string

func (p FixedPicker) Pick(actor.ID) string { return strings.ToLower(string(p)) }

// RandomPicker draws a crypto-random answer from the loaded word list.
type RandomPicker struct{}

func (RandomPicker) Pick(actor.ID) string { return words.RandomAnswer() }

// DailyPicker gives each player one deterministic answer per UTC day:
// HMAC(salt, "YYYY-MM-DD|player") % len(answers).
type DailyPicker struct {
	Salt    string
	Answers []string
	Now     func() time.Time
}

func (p DailyPicker) Pick(player actor.ID) string {
	if len(p.Answers) == 0 {
		return words.RandomAnswer()
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return p.Answers[dailyIndex(now(), p.Salt, string(player), len(p.Answers))]
}

// dateKey returns YYYY-MM-DD in UTC.
func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func dailyIndex(date time.Time, salt, player string, n int) int {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(dateKey(date) + "|" + player))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}
