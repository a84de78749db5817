// Package bot turns chat commands into checklist operations.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"FundReview/internal/checklist"
	"FundReview/internal/model"
	"FundReview/internal/notifier"

	"go.uber.org/zap"
)

const helpText = `Commands:
/list - show all funds
/add YYYY-MM-DD name - add a fund
/step id step - activate a step (info, anlys, myrev, partn, email, rej)
/stepdate id step YYYY-MM-DD - correct a step date
/rename id name - rename a fund
/date id YYYY-MM-DD - change the assigned date
/up id, /down id - move a fund
/delete id - delete a rejected fund
/history id - show recorded changes`

// Handler dispatches commands to a checklist controller.
type Handler struct {
	Ctrl *checklist.Controller
	log  *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(ctrl *checklist.Controller, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Ctrl: ctrl, log: logger.Named("bot")}
}

// HandleCommand runs one command and returns the reply. Failed commands
// leave the funds untouched and reply with the reason.
func (h *Handler) HandleCommand(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return helpText
	}
	// Telegram appends "@botname" to commands in group chats.
	cmd := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])
	args := fields[1:]

	var err error
	switch cmd {
	case "/list":
		return h.list(ctx)
	case "/add":
		err = h.add(ctx, args)
	case "/step":
		err = h.step(ctx, args)
	case "/stepdate":
		err = h.stepDate(ctx, args)
	case "/rename":
		err = h.rename(ctx, args)
	case "/date":
		err = h.reschedule(ctx, args)
	case "/up":
		err = h.move(ctx, args, checklist.Up)
	case "/down":
		err = h.move(ctx, args, checklist.Down)
	case "/delete":
		err = h.delete(ctx, args)
	case "/history":
		return h.history(ctx, args)
	default:
		return helpText
	}
	if err != nil {
		return h.errorReply(cmd, err)
	}
	return h.list(ctx)
}

func (h *Handler) list(ctx context.Context) string {
	funds, err := h.Ctrl.Funds(ctx)
	if err != nil {
		return h.errorReply("/list", err)
	}
	return notifier.FormatFundTable(funds)
}

func (h *Handler) add(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("/add YYYY-MM-DD name")
	}
	d, err := model.ParseDate(args[0])
	if err != nil {
		return err
	}
	_, err = h.Ctrl.AddFund(ctx, strings.Join(args[1:], " "), d)
	return err
}

func (h *Handler) step(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("/step id step")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	s, err := model.ParseStep(args[1])
	if err != nil {
		return err
	}
	_, err = h.Ctrl.ToggleStep(ctx, id, s)
	return err
}

func (h *Handler) stepDate(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return usage("/stepdate id step YYYY-MM-DD")
	}
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
	return h.Ctrl.SetStepDate(ctx, id, s, d)
}

func (h *Handler) rename(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("/rename id name")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return h.Ctrl.Rename(ctx, id, strings.Join(args[1:], " "))
}

func (h *Handler) reschedule(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("/date id YYYY-MM-DD")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	d, err := model.ParseDate(args[1])
	if err != nil {
		return err
	}
	return h.Ctrl.Reschedule(ctx, id, d)
}

func (h *Handler) move(ctx context.Context, args []string, dir checklist.Direction) error {
	if len(args) != 1 {
		return usage("/" + string(dir) + " id")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return h.Ctrl.Reorder(ctx, id, dir)
}

func (h *Handler) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("/delete id")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return h.Ctrl.DeleteFund(ctx, id)
}

func (h *Handler) history(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return h.errorReply("/history", usage("/history id"))
	}
	id, err := parseID(args[0])
	if err != nil {
		return h.errorReply("/history", err)
	}
	events, err := h.Ctrl.History(ctx, id, 20)
	if err != nil {
		return h.errorReply("/history", err)
	}
	return notifier.FormatHistory(id, events)
}

func (h *Handler) errorReply(cmd string, err error) string {
	switch {
	case model.IsValidation(err):
		return "⚠️ " + err.Error()
	case model.IsNotFound(err):
		return "🔍 " + err.Error()
	case model.IsPolicy(err):
		return "🚫 " + err.Error() + " (mark it Rejected first)"
	}
	h.log.Error("command failed", zap.String("command", cmd), zap.Error(err))
	return "❌ internal error, please retry"
}

func parseID(v string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(v, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &model.ValidationError{Field: "id", Reason: fmt.Sprintf("%q is not a fund id", v)}
	}
	return id, nil
}

func usage(u string) error {
	return &model.ValidationError{Field: "command", Reason: "usage: " + u}
}
