package store

import (
	"errors"
	"strings"

	"portfolio-cli/internal/model"
)

// Ranks are lowercase base36 strings compared lexicographically. New ranks are
// fractional midpoints, so an item can always be placed between two neighbors without
// touching them (until the neighbors are prefix-adjacent, e.g. "y" and "y0").

const (
	rankDigits = "0123456789abcdefghijklmnopqrstuvwxyz"
	rankMaxLen = 256
)

var errNoRankSpace = errors.New("no space between ranks")

func digitValue(c byte) (int, bool) {
	i := strings.IndexByte(rankDigits, c)
	return i, i >= 0
}

func normRank(r string) string { return strings.ToLower(strings.TrimSpace(r)) }

// RankBetween returns a rank strictly between lo and hi. Either bound may be empty,
// meaning unbounded on that side.
func RankBetween(lo, hi string) (string, error) {
	lo, hi = normRank(lo), normRank(hi)
	if lo != "" && hi != "" && lo >= hi {
		return "", errors.New("RankBetween requires lo < hi")
	}

	out := make([]byte, 0, len(lo)+1)
	for i := 0; i < rankMaxLen; i++ {
		dl, dh := 0, len(rankDigits)-1
		if i < len(lo) {
			v, ok := digitValue(lo[i])
			if !ok {
				return "", errors.New("invalid rank character in lower bound")
			}
			dl = v
		}
		if i < len(hi) {
			v, ok := digitValue(hi[i])
			if !ok {
				return "", errors.New("invalid rank character in upper bound")
			}
			dh = v
		}

		switch {
		case dl == dh:
			out = append(out, rankDigits[dl])
			continue
		case dh-dl > 1:
			out = append(out, rankDigits[(dl+dh)/2])
		default:
			// Adjacent digits: any extension of lo still sorts before hi.
			out = []byte(lo + "0")
		}
		r := string(out)
		if (lo != "" && r <= lo) || (hi != "" && r >= hi) {
			return "", errNoRankSpace
		}
		return r, nil
	}
	return "", errors.New("rank too long")
}

func RankAfter(lo string) (string, error)  { return RankBetween(lo, "") }
func RankBefore(hi string) (string, error) { return RankBetween("", hi) }

// RankBetweenUnique is RankBetween that skips values already in taken.
// taken keys must be normalized ranks.
func RankBetweenUnique(taken map[string]bool, lo, hi string) (string, error) {
	cur := normRank(lo)
	for i := 0; i < rankMaxLen; i++ {
		r, err := RankBetween(cur, hi)
		if err != nil {
			return "", err
		}
		if !taken[r] {
			return r, nil
		}
		cur = r
	}
	return "", errors.New("unable to find unique rank")
}

// AssignRanks makes the ranks of projects strictly increasing in slice order.
// Ranks that already fit are kept; the rest are placed between their neighbors.
// It returns the ids whose rank changed.
func AssignRanks(projects []model.Project) ([]string, error) {
	var changed []string
	prev := ""
	for i := range projects {
		pr := &projects[i]
		r := normRank(pr.Rank)
		if r != "" && (prev == "" || r > prev) && validRank(r) {
			pr.Rank = r
			prev = r
			continue
		}
		// Use the next rank that still fits as an upper bound, if any.
		hi := ""
		for j := i + 1; j < len(projects); j++ {
			nr := normRank(projects[j].Rank)
			if nr != "" && nr > prev && validRank(nr) {
				hi = nr
				break
			}
		}
		next, err := RankBetween(prev, hi)
		if err != nil {
			if next, err = RankAfter(prev); err != nil {
				return changed, err
			}
		}
		pr.Rank = next
		prev = next
		changed = append(changed, pr.ID)
	}
	return changed, nil
}

func validRank(r string) bool {
	if r == "" {
		return false
	}
	for i := 0; i < len(r); i++ {
		if _, ok := digitValue(r[i]); !ok {
			return false
		}
	}
	return true
}
