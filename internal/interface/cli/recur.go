package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/planday/planday/internal/application/usecase/taskops"
	"github.com/planday/planday/internal/domain/model"
)

func newRecurCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recur",
		Short: "Manage recurring patterns",
		RunE:  func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.AddCommand(newRecurCreateCmd())
	cmd.AddCommand(newRecurListCmd())
	cmd.AddCommand(newRecurEditCmd())
	cmd.AddCommand(newRecurDeleteCmd())
	return cmd
}

func newRecurCreateCmd() *cobra.Command {
	var (
		letter      string
		number      int
		description string
		rf          ruleFlags
	)

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a recurring pattern",
		Long: `Create registers a standalone recurring pattern. Its occurrences
appear virtually on matching days; list --ensure materializes them
ahead of time.

Example:
  planday recur create "Standup notes" --repeat weekly --days mon,wed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := parseLetter(letter)
			if err != nil {
				return err
			}
			rule, err := rf.build(model.DateOf(time.Now()))
			if err != nil {
				return err
			}

			p, err := container.TaskService().CreatePattern(cmd.Context(), taskops.CreatePatternInput{
				UserID:      model.UserID(userID()),
				Title:       args[0],
				Description: description,
				Letter:      l,
				Number:      number,
				Rule:        rule,
			})
			if err != nil {
				return err
			}
			cmd.Printf("Created pattern %s %q (%s)\n", p.ID, p.Title, p.Rule.Type)
			return nil
		},
	}

	cmd.Flags().StringVar(&letter, "prio", string(model.PriorityB), "Priority letter (A-D)")
	cmd.Flags().IntVar(&number, "prio-number", 0, "Priority number")
	cmd.Flags().StringVar(&description, "desc", "", "Description")
	rf.register(cmd)

	return cmd
}

func newRecurListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active recurring patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns, err := container.PatternRepository().FindActive(cmd.Context(), model.UserID(userID()))
			if err != nil {
				return err
			}
			if len(patterns) == 0 {
				cmd.Println("No active patterns.")
				return nil
			}
			for _, p := range patterns {
				cmd.Printf("%s  %-4s %s (%s)\n", p.ID, p.Priority, p.Title, p.Rule.Type)
			}
			return nil
		},
	}
}

func newRecurEditCmd() *cobra.Command {
	var (
		title       string
		description string
		pause       bool
		resume      bool
		regenerate  bool
		from        string
		rf          ruleFlags
	)

	cmd := &cobra.Command{
		Use:   "edit <pattern-id>",
		Short: "Edit a recurring pattern",
		Long: `Edit changes a pattern's fields or rule. Changing the rule of an
already-generated pattern leaves stale future instances behind; pass
--regenerate to drop pending instances after --from (default today)
and regrow them from the new rule. Completed work is never touched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := taskops.UpdatePatternInput{
				UserID:     model.UserID(userID()),
				PatternID:  model.PatternID(args[0]),
				Regenerate: regenerate,
			}
			if cmd.Flags().Changed("title") {
				in.Title = &title
			}
			if cmd.Flags().Changed("desc") {
				in.Description = &description
			}
			if rf.set() {
				rule, err := rf.build(model.DateOf(time.Now()))
				if err != nil {
					return err
				}
				in.Rule = &rule
			}
			if pause || resume {
				active := resume
				in.Active = &active
			}
			if from != "" {
				d, err := model.ParseDate(from)
				if err != nil {
					return err
				}
				in.From = d
			}

			p, err := container.TaskService().UpdatePattern(cmd.Context(), in)
			if err != nil {
				return err
			}
			cmd.Printf("Updated pattern %s %q\n", p.ID, p.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "desc", "", "New description")
	cmd.Flags().BoolVar(&pause, "pause", false, "Deactivate the pattern")
	cmd.Flags().BoolVar(&resume, "resume", false, "Reactivate the pattern")
	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "Drop and regrow pending future instances")
	cmd.Flags().StringVar(&from, "from", "", "Regeneration cutoff date (YYYY-MM-DD, default today)")
	rf.register(cmd)

	return cmd
}

func newRecurDeleteCmd() *cobra.Command {
	var cascade bool

	cmd := &cobra.Command{
		Use:   "delete <pattern-id>",
		Short: "Delete a recurring pattern",
		Long: `Delete removes a pattern. Its materialized instances are kept as
plain tasks by default; --cascade soft-deletes them instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := model.PatternID(args[0])
			if err := container.TaskService().DeletePattern(cmd.Context(), model.UserID(userID()), id, cascade); err != nil {
				return err
			}
			cmd.Printf("Deleted pattern %s\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cascade, "cascade", false, "Also soft-delete the pattern's instances")

	return cmd
}
