package main

import (
	"os"

	"portfolio-cli/internal/cli"
	"portfolio-cli/internal/model"
)

// rewriteProjectLookupArgs turns `folio <project-id>` into `folio projects show <project-id>`.
// Cobra treats the first positional token as a subcommand, so argv is rewritten before
// parsing. Persistent flags may come first, so the first positional is searched for.
func rewriteProjectLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}
	valueFlags := map[string]bool{
		"--dir":       true,
		"--config":    true,
		"--format":    true,
		"--log-level": true,
	}

	rewrite := func(at int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:at]...)
		out = append(out, "projects", "show")
		return append(out, argv[at:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := argv[i]
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && model.IsProjectID(argv[i+1]) {
				return rewrite(i + 1)
			}
			return argv
		}
		if a[0] == '-' {
			if valueFlags[a] {
				i++
			}
			continue
		}
		if model.IsProjectID(a) {
			return rewrite(i)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteProjectLookupArgs(os.Args)

	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
