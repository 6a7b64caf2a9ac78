package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"portfolio-cli/internal/editor"
	"portfolio-cli/internal/model"
	"portfolio-cli/internal/store"

	"github.com/spf13/cobra"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Project commands",
	}
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsShowCmd(app))
	cmd.AddCommand(newProjectsAddCmd(app))
	cmd.AddCommand(newProjectsRemoveCmd(app))
	cmd.AddCommand(newProjectsMoveCmd(app))
	cmd.AddCommand(newProjectsSetCmd(app))
	return cmd
}

// projectIndex resolves a project reference: a project id, or a 1-based position.
func projectIndex(p *model.Portfolio, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if model.IsProjectID(ref) {
		i := p.FindProject(ref)
		if i < 0 {
			return -1, store.NotFoundError{Kind: "project", ID: ref}
		}
		return i, nil
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return -1, fmt.Errorf("invalid project %q (want a project id or a position)", ref)
	}
	if n < 1 || n > len(p.Projects) {
		return -1, fmt.Errorf("%w: position %d (have %d projects)", editor.ErrIndexOutOfRange, n, len(p.Projects))
	}
	return n - 1, nil
}

type projectRow struct {
	Position int `json:"position" yaml:"position"`
	model.Project `yaml:",inline"`
}

func newProjectsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <login>",
		Short: "List featured projects in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			p, err := s.LoadPortfolio(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			rows := make([]projectRow, 0, len(p.Projects))
			for i, pr := range p.Projects {
				rows = append(rows, projectRow{Position: i + 1, Project: pr})
			}
			return writeOut(cmd, app, map[string]any{"data": rows})
		},
	}
}

func newProjectsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project from any stored portfolio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			s, err := openStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			list, err := s.ListPortfolios(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			for _, sum := range list {
				p, err := s.LoadPortfolio(cmd.Context(), sum.Login)
				if err != nil {
					return writeErr(cmd, err)
				}
				if i := p.FindProject(id); i >= 0 {
					return writeOut(cmd, app, map[string]any{
						"data": map[string]any{
							"login":    p.Login,
							"position": i + 1,
							"project":  p.Projects[i],
						},
					})
				}
			}
			return writeErr(cmd, store.NotFoundError{Kind: "project", ID: id})
		},
	}
}

func newProjectsAddCmd(app *App) *cobra.Command {
	var pr model.Project
	var topics []string

	cmd := &cobra.Command{
		Use:   "add <login>",
		Short: "Add a project at the end of the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pr.Name = strings.TrimSpace(pr.Name)
			if pr.Name == "" {
				return writeErr(cmd, errors.New("missing --name"))
			}
			pr.Topics = topics
			var id string
			p, err := editPortfolio(cmd.Context(), app, args[0], func(ed *editor.Editor) error {
				id = ed.AddProject(pr)
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			i := p.FindProject(id)
			return writeOut(cmd, app, map[string]any{
				"data": projectRow{Position: i + 1, Project: p.Projects[i]},
			})
		},
	}
	cmd.Flags().StringVar(&pr.Name, "name", "", "Project name")
	cmd.Flags().StringVar(&pr.Description, "description", "", "Description")
	cmd.Flags().StringVar(&pr.URL, "url", "", "Project URL")
	cmd.Flags().StringVar(&pr.Language, "language", "", "Primary language")
	cmd.Flags().IntVar(&pr.Stars, "stars", 0, "Star count")
	cmd.Flags().StringSliceVar(&topics, "topic", nil, "Topic (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectsRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <login> <project-id|position>",
		Short: "Remove a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed model.Project
			_, err := editPortfolio(cmd.Context(), app, args[0], func(ed *editor.Editor) error {
				i, err := projectIndex(ed.Portfolio(), args[1])
				if err != nil {
					return err
				}
				removed, _ = ed.Project(i)
				return ed.RemoveProject(i)
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": removed})
		},
	}
}

// moveTarget converts "put from before/after anchor" into the final index of the moved
// project, as MoveProject expects.
func moveTarget(from, anchor int, after bool) int {
	to := anchor
	if anchor > from {
		to--
	}
	if after {
		to++
	}
	return to
}

func newProjectsMoveCmd(app *App) *cobra.Command {
	var before, after string

	cmd := &cobra.Command{
		Use:   "move <login> <project-id|position> [to-position]",
		Short: "Move a project to a new position",
		Long: strings.TrimSpace(`
Move a project to a new position. Positions are 1-based, as shown by "projects list".
The target is the position the project ends up at; alternatively place it relative to
another project with --before or --after.
`),
		Example: strings.TrimSpace(`
folio projects move octocat 3 1
folio projects move octocat proj-... --after proj-...
`),
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, after = strings.TrimSpace(before), strings.TrimSpace(after)
			relative := before != "" || after != ""
			if before != "" && after != "" {
				return writeErr(cmd, errors.New("use only one of --before or --after"))
			}
			if relative == (len(args) == 3) {
				return writeErr(cmd, errors.New("give either a target position or one of --before/--after"))
			}

			var from, to int
			p, err := editPortfolio(cmd.Context(), app, args[0], func(ed *editor.Editor) error {
				cur := ed.Portfolio()
				var err error
				if from, err = projectIndex(cur, args[1]); err != nil {
					return err
				}
				if relative {
					ref := before
					if ref == "" {
						ref = after
					}
					anchor, err := projectIndex(cur, ref)
					if err != nil {
						return err
					}
					if anchor == from {
						return errors.New("cannot move a project relative to itself")
					}
					to = moveTarget(from, anchor, after != "")
				} else {
					n, err := strconv.Atoi(strings.TrimSpace(args[2]))
					if err != nil {
						return fmt.Errorf("invalid position %q", args[2])
					}
					to = n - 1
				}
				return ed.MoveProject(from, to)
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"id":       p.Projects[to].ID,
					"from":     from + 1,
					"to":       to + 1,
					"projects": p.Projects,
				},
			})
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Place before this project (id or position)")
	cmd.Flags().StringVar(&after, "after", "", "Place after this project (id or position)")
	return cmd
}

func newProjectsSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <login> <project-id|position> <field> <value>",
		Short: "Set a project field (name|description|url|language)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out model.Project
			_, err := editPortfolio(cmd.Context(), app, args[0], func(ed *editor.Editor) error {
				i, err := projectIndex(ed.Portfolio(), args[1])
				if err != nil {
					return err
				}
				if err := ed.UpdateProject(i, args[2], args[3]); err != nil {
					return err
				}
				out, _ = ed.Project(i)
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
}

func newSkillsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Skill commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <login> <skill>",
		Short: "Add a skill (ignored when already present)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := editPortfolio(cmd.Context(), app, args[0], func(ed *editor.Editor) error {
				ed.AddSkill(args[1])
				return nil
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": p.Skills})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <login> <skill>",
		Short: "Remove a skill by name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := editPortfolio(cmd.Context(), app, args[0], func(ed *editor.Editor) error {
				for i, s := range ed.Portfolio().Skills {
					if strings.EqualFold(s, strings.TrimSpace(args[1])) {
						return ed.RemoveSkill(i)
					}
				}
				return store.NotFoundError{Kind: "skill", ID: args[1]}
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": p.Skills})
		},
	})
	return cmd
}

func newProfileCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <login> <field> <value>",
		Short: "Set a profile field (name|headline|summary|location|website|avatar)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := editPortfolio(cmd.Context(), app, args[0], func(ed *editor.Editor) error {
				return ed.SetField(args[1], args[2])
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": p})
		},
	})
	return cmd
}
