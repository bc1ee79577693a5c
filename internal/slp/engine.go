// Package slp replays a team's season through the Super Liga points table.
//
// Each played week moves the running score by the win or loss delta of the
// tier the score sits in before that week. Ties never move the score. The
// stored score may go negative; only the tier lookup treats negative scores
// as zero.
package slp

import (
	"fmt"
	"math"

	"github.com/omarshaarawi/superliga/internal/models"
)

type TierRule struct {
	Name string
	Min  int
	Max  int
	Win  int
	Loss int
}

func (r TierRule) Contains(score int) bool {
	return score >= r.Min && score <= r.Max
}

var tiers = []TierRule{
	{Name: "Chumbo", Min: 0, Max: 999, Win: 200, Loss: -25},
	{Name: "Cobre", Min: 1000, Max: 1999, Win: 120, Loss: -50},
	{Name: "Bronze", Min: 2000, Max: 2899, Win: 120, Loss: -100},
	{Name: "Prata", Min: 2900, Max: 3999, Win: 100, Loss: -100},
	{Name: "Ouro", Min: 4000, Max: 5599, Win: 80, Loss: -100},
	{Name: "Platina", Min: 5600, Max: 6000, Win: 80, Loss: -120},
	{Name: "Diamante", Min: 6001, Max: 6499, Win: 60, Loss: -120},
	{Name: "Esmeralda", Min: 6500, Max: 6999, Win: 60, Loss: -140},
	{Name: "Esmeralda Real", Min: 7000, Max: math.MaxInt, Win: 50, Loss: -200},
}

// Tiers returns a copy of the points table, lowest tier first.
func Tiers() []TierRule {
	out := make([]TierRule, len(tiers))
	copy(out, tiers)
	return out
}

// Validate checks that the table starts at zero, has no gaps or overlaps and
// is unbounded at the top.
func Validate() error {
	return validate(tiers)
}

func validate(rules []TierRule) error {
	if len(rules) == 0 {
		return fmt.Errorf("empty tier table")
	}
	if rules[0].Min != 0 {
		return fmt.Errorf("tier %q starts at %d, want 0", rules[0].Name, rules[0].Min)
	}
	for i, r := range rules {
		if r.Max < r.Min {
			return fmt.Errorf("tier %q has max %d below min %d", r.Name, r.Max, r.Min)
		}
		if i > 0 && r.Min != rules[i-1].Max+1 {
			return fmt.Errorf("tier %q starts at %d, want %d", r.Name, r.Min, rules[i-1].Max+1)
		}
	}
	if last := rules[len(rules)-1]; last.Max != math.MaxInt {
		return fmt.Errorf("top tier %q is bounded at %d", last.Name, last.Max)
	}
	return nil
}

// Lookup returns the tier for a score. Negative scores are looked up as 0.
func Lookup(score int) TierRule {
	score = max(score, 0)
	for _, r := range tiers {
		if r.Contains(score) {
			return r
		}
	}
	return tiers[0]
}

// ScoreChange is the delta a result is worth at the given score.
func ScoreChange(score int, result models.Result) int {
	rule := Lookup(score)
	switch result {
	case models.Win:
		return rule.Win
	case models.Loss:
		return rule.Loss
	default:
		return 0
	}
}

// OutcomeFunc reports the outcome of one week, false when there is none.
type OutcomeFunc func(week int) (models.MatchupOutcome, bool)

// Replay folds weeks 1..weeks in order, starting from seed. Weeks without an
// outcome are recorded as byes and leave the score untouched.
func Replay(rosterID, seed, weeks int, outcomeAt OutcomeFunc) models.SLPState {
	state := models.SLPState{
		RosterID: rosterID,
		Seed:     seed,
		Trace:    make([]models.SLPEntry, 0, weeks),
	}

	score := seed
	for week := 1; week <= weeks; week++ {
		outcome, ok := outcomeAt(week)
		if !ok {
			state.Trace = append(state.Trace, models.SLPEntry{Week: week, Bye: true, ScoreAfter: score})
			continue
		}

		delta := ScoreChange(score, outcome.Result)
		score += delta
		state.Trace = append(state.Trace, models.SLPEntry{
			Week:       week,
			Points:     outcome.Points,
			Result:     outcome.Result,
			Delta:      delta,
			ScoreAfter: score,
		})
	}

	state.Final = score
	return state
}
