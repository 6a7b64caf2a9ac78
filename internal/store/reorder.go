package store

import (
	"errors"
	"sort"
	"strings"

	"portfolio-cli/internal/model"
)

// ReorderPlan is the set of rank writes that realizes one index move.
type ReorderPlan struct {
	// RankByID holds only the projects whose rank changes.
	RankByID map[string]string
	// Window lists the rebalanced ids in final order when neighbor ranks could not
	// bound the moved project on their own.
	Window      []string
	Rebalanced  bool
	FinalOrder  []string
	InsertIndex int
}

// SortProjects orders projects by rank, then AddedAt, then ID. Unranked projects sort
// by AddedAt among themselves.
func SortProjects(ps []model.Project) {
	sort.SliceStable(ps, func(i, j int) bool { return lessProject(ps[i], ps[j]) })
}

func lessProject(a, b model.Project) bool {
	ra, rb := normRank(a.Rank), normRank(b.Rank)
	if ra != "" && rb != "" && ra != rb {
		return ra < rb
	}
	if !a.AddedAt.Equal(b.AddedAt) {
		return a.AddedAt.Before(b.AddedAt)
	}
	return a.ID < b.ID
}

// PlanReorder plans the rank updates that move projectID to insertAt, where insertAt
// indexes the list with the moved project already removed (splice semantics).
//
// Only the moved project's rank changes when its new neighbors leave room for it.
// Otherwise the smallest window around the insertion point whose outer neighbors are
// strictly ordered is re-ranked.
func PlanReorder(ps []model.Project, projectID string, insertAt int) (ReorderPlan, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return ReorderPlan{}, errors.New("missing project id")
	}
	cur := append([]model.Project(nil), ps...)
	SortProjects(cur)

	from := -1
	for i := range cur {
		if cur[i].ID == projectID {
			from = i
			break
		}
	}
	if from < 0 {
		return ReorderPlan{}, NotFoundError{Kind: "project", ID: projectID}
	}

	rest := make([]model.Project, 0, len(cur)-1)
	rest = append(rest, cur[:from]...)
	rest = append(rest, cur[from+1:]...)
	if insertAt < 0 {
		insertAt = 0
	}
	if insertAt > len(rest) {
		insertAt = len(rest)
	}

	final := make([]model.Project, 0, len(cur))
	final = append(final, rest[:insertAt]...)
	final = append(final, cur[from])
	final = append(final, rest[insertAt:]...)

	plan := ReorderPlan{RankByID: map[string]string{}, InsertIndex: insertAt}
	for _, p := range final {
		plan.FinalOrder = append(plan.FinalOrder, p.ID)
	}
	if insertAt == from {
		return plan, nil
	}

	// Unranked neighbors cannot bound anything; rank the whole list in its new order.
	cands := windows(len(final), insertAt, insertAt < from)
	for _, p := range final {
		if normRank(p.Rank) == "" {
			cands = [][2]int{{0, len(final) - 1}}
			break
		}
	}
	// Moving up prefers pulling in the displaced neighbors below the insertion point.
	for _, w := range cands {
		ranks, ok := fillWindow(final, w[0], w[1])
		if !ok {
			continue
		}
		for i, r := range ranks {
			p := final[w[0]+i]
			if normRank(p.Rank) != r {
				plan.RankByID[p.ID] = r
			}
		}
		if w[1] > w[0] {
			plan.Rebalanced = true
			for i := w[0]; i <= w[1]; i++ {
				plan.Window = append(plan.Window, final[i].ID)
			}
		}
		return plan, nil
	}
	return ReorderPlan{}, errNoRankSpace
}

// fillWindow assigns fresh increasing ranks to ps[lo..hi] between the ranks of the
// projects just outside the window.
func fillWindow(ps []model.Project, lo, hi int) ([]string, bool) {
	skip := map[string]bool{}
	for i := lo; i <= hi; i++ {
		skip[ps[i].ID] = true
	}
	taken := ranksExcept(ps, skip)
	below, above := neighborRanks(ps, lo, hi)
	if below != "" && above != "" && below >= above {
		return nil, false
	}
	out := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		r, err := RankBetweenUnique(taken, below, above)
		if err != nil {
			return nil, false
		}
		taken[r] = true
		out = append(out, r)
		below = r
	}
	return out, true
}

func ranksExcept(ps []model.Project, skip map[string]bool) map[string]bool {
	out := map[string]bool{}
	for _, p := range ps {
		if skip[p.ID] {
			continue
		}
		if r := normRank(p.Rank); r != "" {
			out[r] = true
		}
	}
	return out
}

// neighborRanks returns the ranks just outside [lo, hi] in ps.
func neighborRanks(ps []model.Project, lo, hi int) (string, string) {
	var before, after string
	if lo > 0 {
		before = normRank(ps[lo-1].Rank)
	}
	if hi+1 < len(ps) {
		after = normRank(ps[hi+1].Rank)
	}
	return before, after
}

// windows lists every run [lo, hi] containing at, shortest first. Among runs of the same
// length, preferAfter puts those extending past at first.
func windows(n, at int, preferAfter bool) [][2]int {
	var out [][2]int
	for size := 1; size <= n; size++ {
		first := at - size + 1
		if first < 0 {
			first = 0
		}
		last := at
		if last+size > n {
			last = n - size
		}
		if preferAfter {
			for lo := last; lo >= first; lo-- {
				out = append(out, [2]int{lo, lo + size - 1})
			}
			continue
		}
		for lo := first; lo <= last; lo++ {
			out = append(out, [2]int{lo, lo + size - 1})
		}
	}
	return out
}
