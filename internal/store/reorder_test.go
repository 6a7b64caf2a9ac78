package store

import (
	"testing"
	"time"

	"portfolio-cli/internal/model"

	"github.com/google/go-cmp/cmp"
)

func rankedProjects(ranks ...string) []model.Project {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Project, 0, len(ranks))
	for i, r := range ranks {
		out = append(out, model.Project{ID: string(rune('a' + i)), Rank: r, AddedAt: now.Add(time.Duration(i) * time.Second)})
	}
	return out
}

func applyPlan(ps []model.Project, plan ReorderPlan) []string {
	for i := range ps {
		if r, ok := plan.RankByID[ps[i].ID]; ok {
			ps[i].Rank = r
		}
	}
	SortProjects(ps)
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestPlanReorder_MatchesSplice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       string
		insertAt int
		want     []string
	}{
		{"a", 2, []string{"b", "c", "a", "d", "e"}},
		{"e", 0, []string{"e", "a", "b", "c", "d"}},
		{"b", 4, []string{"a", "c", "d", "e", "b"}},
		{"c", 2, []string{"a", "b", "c", "d", "e"}},
	}
	for _, tt := range tests {
		ps := rankedProjects("c", "f", "i", "l", "o")
		plan, err := PlanReorder(ps, tt.id, tt.insertAt)
		if err != nil {
			t.Fatalf("plan %s->%d: %v", tt.id, tt.insertAt, err)
		}
		if diff := cmp.Diff(tt.want, plan.FinalOrder); diff != "" {
			t.Fatalf("final order mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(tt.want, applyPlan(ps, plan)); diff != "" {
			t.Fatalf("ranks do not realize the move (-want +got):\n%s", diff)
		}
		if len(plan.RankByID) > 1 || plan.Rebalanced {
			t.Fatalf("spacious ranks should only rewrite the moved project: %+v", plan)
		}
	}
}

func TestPlanReorder_PrefixAdjacentBoundsRebalance(t *testing.T) {
	// "y" < "y0" leaves no room; moving x between them must rebalance, not jump past y0.
	ps := rankedProjects("y", "y0", "h")
	ps[2].ID = "x"

	plan, err := PlanReorder(ps, "x", 1)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !plan.Rebalanced {
		t.Fatalf("expected a rebalance")
	}
	if diff := cmp.Diff([]string{"a", "x", "b"}, applyPlan(ps, plan)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanReorder_UnrankedAndErrors(t *testing.T) {
	t.Parallel()

	ps := rankedProjects("", "", "")
	plan, err := PlanReorder(ps, "c", 0)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if diff := cmp.Diff([]string{"c", "a", "b"}, applyPlan(ps, plan)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	if _, err := PlanReorder(ps, "zzz", 0); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := PlanReorder(ps, " ", 0); err == nil {
		t.Fatalf("expected error for empty id")
	}
}
