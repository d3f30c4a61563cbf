package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/fernhill/todosync/internal/ledger"
	"github.com/fernhill/todosync/internal/syncer"
	"github.com/fernhill/todosync/internal/types"
)

// DefaultConcurrency bounds simultaneous create calls so a wide template
// does not overwhelm the external API.
const DefaultConcurrency = 4

// CreatedTask records one successful create.
type CreatedTask struct {
	Key        string
	Title      string
	ExternalID string
}

// AbandonedTask records one create that was never attempted or failed.
// Err is set on the node that failed; its descendants carry a nil Err
// and are abandoned because their parent has no external id.
type AbandonedTask struct {
	Key   string
	Title string
	Err   error
}

// Result reports the outcome of one materialization run.
type Result struct {
	RunID          int64
	RootExternalID string
	Created        []CreatedTask
	Abandoned      []AbandonedTask
}

// PartialCreationError is returned when some creates succeeded and
// others were abandoned. It is never retried automatically: re-running
// the template would duplicate the succeeded tasks.
type PartialCreationError struct {
	Created   []CreatedTask
	Abandoned []AbandonedTask
}

func (e *PartialCreationError) Error() string {
	var keys []string
	for _, a := range e.Abandoned {
		keys = append(keys, a.Key)
	}
	return fmt.Sprintf("materialization incomplete: %d created, %d abandoned (%s)",
		len(e.Created), len(e.Abandoned), strings.Join(keys, ", "))
}

// Executor dispatches a plan's create operations through the sync
// client and records every created task in the ledger. It never knows
// whether the bound client is live or dry-run.
type Executor struct {
	Client      syncer.Client
	Ledger      ledger.Store
	Logger      *slog.Logger
	Concurrency int64
}

// NewExecutor wires an executor. If logger is nil, slog.Default() is used.
func NewExecutor(client syncer.Client, store ledger.Store, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		Client:      client,
		Ledger:      store,
		Logger:      logger,
		Concurrency: DefaultConcurrency,
	}
}

// Run executes the plan. The run's root task is created first; the
// root-level subtrees then run concurrently, bounded by Concurrency,
// each subtree created parent-before-child. A node's creation failure
// abandons its entire subtree but leaves sibling subtrees untouched.
//
// Cancelling ctx stops further dispatches but lets the in-flight create
// finish and be recorded: the external system has no rollback, and an
// unrecorded created task would be orphaned.
func (ex *Executor) Run(ctx context.Context, plan *Plan) (*Result, error) {
	run := &types.ParentTaskRecord{
		TemplateID:  plan.TemplateID,
		TokenValues: plan.Values,
	}
	if err := ex.Ledger.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}

	res := &Result{RunID: run.ID}
	concurrency := ex.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	sem := semaphore.NewWeighted(concurrency)

	// callCtx deliberately survives cancellation of ctx; see Run's doc.
	callCtx := context.WithoutCancel(ctx)

	rootID, err := ex.create(ctx, callCtx, sem, syncer.CreateRequest{
		Content:     plan.RootTitle,
		Description: plan.Description,
		ProjectID:   plan.ProjectID,
		SectionID:   plan.SectionID,
	})
	if err != nil {
		// Root failure abandons the whole run; nothing was created.
		for _, op := range plan.Nodes {
			abandonSubtree(res, op, nil)
		}
		res.Abandoned = append([]AbandonedTask{{Key: "root", Title: plan.RootTitle, Err: err}}, res.Abandoned...)
		return res, &PartialCreationError{Abandoned: res.Abandoned}
	}
	res.RootExternalID = rootID

	if err := ex.Ledger.SetRunExternalID(callCtx, run.ID, rootID); err != nil {
		return res, fmt.Errorf("record run external id: %w", err)
	}
	if err := ex.recordTask(callCtx, run.ID, rootID, plan.RootTitle, nil, plan.SectionID); err != nil {
		return res, err
	}
	res.Created = append(res.Created, CreatedTask{Key: "root", Title: plan.RootTitle, ExternalID: rootID})

	// Root-level subtrees have no data dependency on each other.
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, op := range plan.Nodes {
		wg.Add(1)
		go func(op *CreateOp) {
			defer wg.Done()
			ex.runSubtree(ctx, callCtx, sem, run.ID, rootID, op, plan, res, &mu)
		}(op)
	}
	wg.Wait()

	if len(res.Abandoned) > 0 {
		return res, &PartialCreationError{Created: res.Created, Abandoned: res.Abandoned}
	}
	return res, nil
}

// runSubtree creates op under parentID, then its children in order.
// Children are only attempted once the parent's external id is known.
func (ex *Executor) runSubtree(ctx, callCtx context.Context, sem *semaphore.Weighted,
	runID int64, parentID string, op *CreateOp, plan *Plan, res *Result, mu *sync.Mutex) {

	if ctx.Err() != nil {
		mu.Lock()
		abandonSubtree(res, op, ctx.Err())
		mu.Unlock()
		return
	}

	extID, err := ex.create(ctx, callCtx, sem, syncer.CreateRequest{
		Content:   op.Title,
		Labels:    op.Labels,
		ParentID:  parentID,
		ProjectID: plan.ProjectID,
		SectionID: plan.SectionID,
	})
	if err != nil {
		ex.Logger.Warn("task creation failed, abandoning subtree",
			"key", op.Key, "title", op.Title, "error", err)
		mu.Lock()
		abandonSubtree(res, op, err)
		mu.Unlock()
		return
	}

	if err := ex.recordTask(callCtx, runID, extID, op.Title, op.Labels, plan.SectionID); err != nil {
		ex.Logger.Error("ledger write failed for created task",
			"key", op.Key, "external_id", extID, "error", err)
	}
	mu.Lock()
	res.Created = append(res.Created, CreatedTask{Key: op.Key, Title: op.Title, ExternalID: extID})
	mu.Unlock()

	for _, child := range op.Children {
		ex.runSubtree(ctx, callCtx, sem, runID, extID, child, plan, res, mu)
	}
}

// create performs one bounded create call. The semaphore is held only
// for the duration of the network call, never across a subtree.
func (ex *Executor) create(ctx, callCtx context.Context, sem *semaphore.Weighted, req syncer.CreateRequest) (string, error) {
	if err := sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer sem.Release(1)
	return ex.Client.CreateTask(callCtx, req)
}

func (ex *Executor) recordTask(ctx context.Context, runID int64, extID, title string, labels []string, sectionID string) error {
	return ex.Ledger.RecordTask(ctx, &types.ChildTaskRecord{
		ParentID:   runID,
		ExternalID: extID,
		Title:      title,
		Labels:     labels,
		SectionID:  sectionID,
	})
}

// abandonSubtree marks op and all its descendants abandoned. The cause
// is attached to the failed node only.
func abandonSubtree(res *Result, op *CreateOp, cause error) {
	res.Abandoned = append(res.Abandoned, AbandonedTask{Key: op.Key, Title: op.Title, Err: cause})
	for _, child := range op.Children {
		abandonSubtree(res, child, nil)
	}
}
