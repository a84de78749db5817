package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"FundReview/internal/checklist"
	"FundReview/internal/model"
	"FundReview/internal/notifier"
	"FundReview/internal/render"

	"github.com/spf13/cobra"
)

var (
	addDate      string
	historyLimit int
)

var addCmd = &cobra.Command{
	Use:   "add NAME...",
	Short: "Add a fund at the end of the list",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		d := model.Day(time.Now())
		if addDate != "" {
			var err error
			if d, err = model.ParseDate(addDate); err != nil {
				return err
			}
		}
		id, err := a.ctrl.AddFund(cmd.Context(), strings.Join(args, " "), d)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added fund #%d\n", id)
		return printFunds(a, cmd)
	}),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all funds in display order",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, _ []string) error {
		return printFunds(a, cmd)
	}),
}

var stepCmd = &cobra.Command{
	Use:   "step ID STEP",
	Short: "Activate a review step (info, anlys, myrev, partn, email, rej)",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		s, err := model.ParseStep(args[1])
		if err != nil {
			return err
		}
		if _, err := a.ctrl.ToggleStep(cmd.Context(), id, s); err != nil {
			return err
		}
		return printFunds(a, cmd)
	}),
}

var stepDateCmd = &cobra.Command{
	Use:   "stepdate ID STEP YYYY-MM-DD",
	Short: "Correct the completion date of a done step",
	Args:  cobra.ExactArgs(3),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		s, err := model.ParseStep(args[1])
		if err != nil {
			return err
		}
		d, err := model.ParseDate(args[2])
		if err != nil {
			return err
		}
		if err := a.ctrl.SetStepDate(cmd.Context(), id, s, d); err != nil {
			return err
		}
		return printFunds(a, cmd)
	}),
}

var renameCmd = &cobra.Command{
	Use:   "rename ID NAME...",
	Short: "Rename a fund",
	Args:  cobra.MinimumNArgs(2),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := a.ctrl.Rename(cmd.Context(), id, strings.Join(args[1:], " ")); err != nil {
			return err
		}
		return printFunds(a, cmd)
	}),
}

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule ID YYYY-MM-DD",
	Short: "Change the assigned date of a fund",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		d, err := model.ParseDate(args[1])
		if err != nil {
			return err
		}
		if err := a.ctrl.Reschedule(cmd.Context(), id, d); err != nil {
			return err
		}
		return printFunds(a, cmd)
	}),
}

var moveCmd = &cobra.Command{
	Use:       "move ID up|down",
	Short:     "Swap a fund with its neighbour",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"up", "down"},
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		dir, ok := checklist.ParseDirection(args[1])
		if !ok {
			return &model.ValidationError{Field: "direction", Reason: fmt.Sprintf("want up or down, got %q", args[1])}
		}
		if err := a.ctrl.Reorder(cmd.Context(), id, dir); err != nil {
			return err
		}
		return printFunds(a, cmd)
	}),
}

var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a rejected fund",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := a.ctrl.DeleteFund(cmd.Context(), id); err != nil {
			return err
		}
		return printFunds(a, cmd)
	}),
}

var historyCmd = &cobra.Command{
	Use:   "history ID",
	Short: "Show recorded changes of a fund",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(a *app, cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		events, err := a.ctrl.History(cmd.Context(), id, historyLimit)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), render.History(id, events))
		return nil
	}),
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Print the review digest that serve sends on schedule",
	Args:  cobra.NoArgs,
	RunE: withApp(func(a *app, cmd *cobra.Command, _ []string) error {
		funds, err := a.ctrl.Funds(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), notifier.FormatDigest(funds, a.ctrl.Now(), a.cfg.StaleDays()))
		return nil
	}),
}

func init() {
	addCmd.Flags().StringVar(&addDate, "date", "", "assigned date YYYY-MM-DD (default today)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of events")

	rootCmd.AddCommand(addCmd, listCmd, stepCmd, stepDateCmd, renameCmd, rescheduleCmd,
		moveCmd, deleteCmd, historyCmd, digestCmd)
}

func printFunds(a *app, cmd *cobra.Command) error {
	funds, err := a.ctrl.Funds(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), render.Funds(funds))
	return nil
}

func parseID(v string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(v, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &model.ValidationError{Field: "id", Reason: fmt.Sprintf("%q is not a fund id", v)}
	}
	return id, nil
}
