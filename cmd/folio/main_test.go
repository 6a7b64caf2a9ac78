package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRewriteProjectLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"folio"},
			want: []string{"folio"},
		},
		{
			name: "project id first token",
			in:   []string{"folio", "proj-abc123"},
			want: []string{"folio", "projects", "show", "proj-abc123"},
		},
		{
			name: "project id after value flag",
			in:   []string{"folio", "--dir", "./tmp-store", "proj-abc123"},
			want: []string{"folio", "--dir", "./tmp-store", "projects", "show", "proj-abc123"},
		},
		{
			name: "project id after equals flag",
			in:   []string{"folio", "--dir=./tmp-store", "proj-abc123"},
			want: []string{"folio", "--dir=./tmp-store", "projects", "show", "proj-abc123"},
		},
		{
			name: "project id after bool flag",
			in:   []string{"folio", "--pretty", "proj-abc123"},
			want: []string{"folio", "--pretty", "projects", "show", "proj-abc123"},
		},
		{
			name: "project id after double dash",
			in:   []string{"folio", "--format", "yaml", "--", "proj-abc123"},
			want: []string{"folio", "--format", "yaml", "--", "projects", "show", "proj-abc123"},
		},
		{
			name: "login opens the editor",
			in:   []string{"folio", "octocat"},
			want: []string{"folio", "octocat"},
		},
		{
			name: "subcommand not rewritten",
			in:   []string{"folio", "projects", "show", "proj-abc123"},
			want: []string{"folio", "projects", "show", "proj-abc123"},
		},
		{
			name: "bare prefix is not an id",
			in:   []string{"folio", "proj-"},
			want: []string{"folio", "proj-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, rewriteProjectLookupArgs(tt.in)); diff != "" {
				t.Fatalf("rewriteProjectLookupArgs (-want +got):\n%s", diff)
			}
		})
	}
}
