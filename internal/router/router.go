// Package router consumes inbound completion events and moves completed
// tasks between sections according to the declared rule table.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fernhill/todosync/internal/ledger"
	"github.com/fernhill/todosync/internal/syncer"
	"github.com/fernhill/todosync/internal/types"
)

// Outcome describes how one event was handled.
type Outcome int

const (
	// OutcomeIgnored means the event was not item:completed, or the task
	// is unknown to the ledger.
	OutcomeIgnored Outcome = iota
	// OutcomeDuplicate means the task was already completed; no-op.
	OutcomeDuplicate
	// OutcomeCompleted means the task was marked completed with no
	// matching rule, so no move was issued.
	OutcomeCompleted
	// OutcomeMoved means a rule matched and the move was issued.
	OutcomeMoved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeCompleted:
		return "completed"
	case OutcomeMoved:
		return "moved"
	default:
		return "ignored"
	}
}

// Router routes completion events through the section rule table.
// Rules is the ordered declaration list; the first matching rule wins.
type Router struct {
	Client syncer.Client
	Ledger ledger.Store
	Rules  []types.SectionRule
	Logger *slog.Logger

	keys *ledger.KeyedMutex
}

// New wires a router. If logger is nil, slog.Default() is used.
func New(client syncer.Client, store ledger.Store, rules []types.SectionRule, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		Client: client,
		Ledger: store,
		Rules:  rules,
		Logger: logger,
		keys:   ledger.NewKeyedMutex(),
	}
}

// Handle processes one inbound event. Duplicate deliveries are
// acknowledged no-ops; a failed move is reported in the outcome but the
// task is still marked completed, so retry-delivery semantics of the
// event source cannot trigger a move storm. The returned error is
// non-nil only when the ledger itself fails.
func (r *Router) Handle(ctx context.Context, ev types.CompletionEvent) (Outcome, error) {
	if ev.Event != types.EventItemCompleted {
		return OutcomeIgnored, nil
	}
	if ev.TaskID == "" {
		return OutcomeIgnored, fmt.Errorf("completion event missing task_id")
	}

	// Serialize per external id: two deliveries for the same task must
	// not race to issue two moves.
	unlock := r.keys.Lock(ev.TaskID)
	defer unlock()

	rec, err := r.Ledger.GetTaskByExternalID(ctx, ev.TaskID)
	if err != nil {
		if ledgerNotFound(err) {
			r.Logger.Debug("completion event for untracked task", "task_id", ev.TaskID)
			return OutcomeIgnored, nil
		}
		return OutcomeIgnored, fmt.Errorf("ledger lookup: %w", err)
	}
	if rec.Completed {
		return OutcomeDuplicate, nil
	}

	rule, extra := match(r.Rules, ev)
	if extra > 0 {
		// First-declared-rule-wins; surface the ambiguity for operators.
		r.Logger.Warn("multiple section rules match completion event",
			"task_id", ev.TaskID, "section_id", ev.SectionID,
			"applied_label", rule.Label, "additional_matches", extra)
	}

	sectionID := ev.SectionID
	outcome := OutcomeCompleted
	if rule != nil {
		if err := r.Client.MoveTask(ctx, ev.TaskID, rule.DestSectionID); err != nil {
			// The event is still marked processed: the source redelivers
			// on failure, and a retried move must not fire twice.
			r.Logger.Error("move failed for completed task",
				"task_id", ev.TaskID, "dest_section_id", rule.DestSectionID, "error", err)
		} else {
			sectionID = rule.DestSectionID
			outcome = OutcomeMoved
		}
	}

	if err := r.Ledger.MarkCompleted(ctx, ev.TaskID, sectionID); err != nil {
		return outcome, fmt.Errorf("mark completed: %w", err)
	}
	return outcome, nil
}

// match scans the rules in declaration order. It returns the first
// matching rule and how many later rules would also have matched.
func match(rules []types.SectionRule, ev types.CompletionEvent) (*types.SectionRule, int) {
	var first *types.SectionRule
	extra := 0
	for i := range rules {
		if rules[i].Matches(ev.SectionID, ev.Labels) {
			if first == nil {
				first = &rules[i]
			} else {
				extra++
			}
		}
	}
	return first, extra
}

func ledgerNotFound(err error) bool {
	return errors.Is(err, ledger.ErrNotFound)
}
