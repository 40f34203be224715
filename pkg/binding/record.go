package binding

import (
	"context"
	"fmt"

	"github.com/bft-labs/lifecoord/internal/domain"
	"github.com/bft-labs/lifecoord/pkg/future"
	"github.com/bft-labs/lifecoord/pkg/log"
	"github.com/bft-labs/lifecoord/pkg/resource"
	"github.com/bft-labs/lifecoord/pkg/usecase"
)

// ErrUseCaseLimit is returned when attaching would exceed the primary
// resource's MaxUseCases.
var ErrUseCaseLimit = domain.ErrUseCaseLimit

// Key identifies a binding record.
type Key struct {
	SourceID string
	SetID    string
}

func (k Key) String() string {
	return k.SourceID + "/" + k.SetID
}

// Record associates a lifecycle source and a resolved resource set with the
// use cases attached to it.
//
// A record claims its primary resource while it is active and has at least
// one use case. Claim changes run on the executor, one at a time per record.
type Record struct {
	key       Key
	primary   resource.Resource
	resources []resource.Resource
	useCases  []usecase.UseCase

	active  bool
	claimed bool
	settled *future.Future[future.Void]

	exec   future.Executor
	logger log.Logger
}

func newRecord(key Key, resources []resource.Resource, exec future.Executor, logger log.Logger) *Record {
	return &Record{
		key:       key,
		primary:   resources[0],
		resources: append([]resource.Resource(nil), resources...),
		settled:   future.Resolved(future.Void{}),
		exec:      exec,
		logger:    logger.With(log.String("record", key.String())),
	}
}

// Key returns the record key.
func (r *Record) Key() Key { return r.key }

// SourceID returns the lifecycle source the record belongs to.
func (r *Record) SourceID() string { return r.key.SourceID }

// Primary returns the resource the use cases run on.
func (r *Record) Primary() resource.Resource { return r.primary }

// Resources returns the full resolved resource set.
func (r *Record) Resources() []resource.Resource {
	return append([]resource.Resource(nil), r.resources...)
}

// UseCases returns the attached use cases in attach order.
func (r *Record) UseCases() []usecase.UseCase {
	return append([]usecase.UseCase(nil), r.useCases...)
}

// IsBound reports whether uc is attached to the record.
func (r *Record) IsBound(uc usecase.UseCase) bool {
	return r.indexOf(uc) >= 0
}

// IsActive reports whether the record is the prioritized one.
func (r *Record) IsActive() bool { return r.active }

// IsClaimed reports whether the record currently holds a claim on its
// primary resource (or has one scheduled).
func (r *Record) IsClaimed() bool { return r.claimed }

// Settled returns a future completed once the latest scheduled claim or
// release has run.
func (r *Record) Settled() *future.Future[future.Void] { return r.settled }

func (r *Record) indexOf(uc usecase.UseCase) int {
	for i, existing := range r.useCases {
		if existing.ID() == uc.ID() {
			return i
		}
	}
	return -1
}

// attach adds the use cases not yet attached. It fails without mutating the
// record when the primary resource cannot host them all.
func (r *Record) attach(useCases []usecase.UseCase) error {
	var fresh []usecase.UseCase
	for _, uc := range useCases {
		if r.indexOf(uc) < 0 && !containsID(fresh, uc) {
			fresh = append(fresh, uc)
		}
	}
	if limit := r.primary.Info().MaxUseCases; limit > 0 && len(r.useCases)+len(fresh) > limit {
		return fmt.Errorf("%w: resource %s hosts at most %d use cases",
			ErrUseCaseLimit, r.primary.Info().ID, limit)
	}
	r.useCases = append(r.useCases, fresh...)
	r.reconcile()
	return nil
}

// detach removes the given use cases and reports how many were attached.
func (r *Record) detach(useCases []usecase.UseCase) int {
	removed := 0
	for _, uc := range useCases {
		if i := r.indexOf(uc); i >= 0 {
			r.useCases = append(r.useCases[:i], r.useCases[i+1:]...)
			removed++
		}
	}
	if removed > 0 {
		r.reconcile()
	}
	return removed
}

func (r *Record) detachAll() {
	if len(r.useCases) == 0 {
		return
	}
	r.useCases = nil
	r.reconcile()
}

func (r *Record) setActive(active bool) {
	if r.active == active {
		return
	}
	r.active = active
	r.reconcile()
}

// reconcile schedules an acquire or release when the desired claim differs
// from the current one. Operations chain on the previous one so they reach
// the resource in order.
func (r *Record) reconcile() {
	want := r.active && len(r.useCases) > 0
	if want == r.claimed {
		return
	}
	r.claimed = want

	prev := r.settled
	next, complete := future.New[future.Void]()
	r.settled = next

	primary := r.primary
	logger := r.logger
	go func() {
		<-prev.Done()
		claim := future.Run(r.exec, func() (future.Void, error) {
			ctx := context.Background()
			var err error
			if want {
				err = primary.Acquire(ctx)
			} else {
				err = primary.Release(ctx)
			}
			if err != nil {
				logger.Warn("resource claim change failed", log.Bool("acquire", want), log.Err(err))
			} else {
				logger.Debug("resource claim changed", log.Bool("acquire", want))
			}
			return future.Void{}, err
		})
		future.Propagate(claim, complete)
	}()
}

func containsID(useCases []usecase.UseCase, uc usecase.UseCase) bool {
	for _, existing := range useCases {
		if existing.ID() == uc.ID() {
			return true
		}
	}
	return false
}
