package binding

import (
	"context"

	"github.com/bft-labs/lifecoord/pkg/future"
	"github.com/bft-labs/lifecoord/pkg/log"
	"github.com/bft-labs/lifecoord/pkg/resource"
	"github.com/bft-labs/lifecoord/pkg/usecase"
)

// Repository holds the binding records of one manager instance.
// It is not safe for concurrent use; callers confine it to the control loop.
type Repository struct {
	records map[Key]*Record
	order   []Key
	active  *Record
	exec    future.Executor
	logger  log.Logger
}

// NewRepository creates an empty repository. Claim changes run on exec.
func NewRepository(exec future.Executor, logger log.Logger) *Repository {
	return &Repository{
		records: make(map[Key]*Record),
		exec:    exec,
		logger:  log.OrNoop(logger).With(log.Component("bindings")),
	}
}

// Get returns the record for (sourceID, setID), or nil.
func (r *Repository) Get(sourceID, setID string) *Record {
	return r.records[Key{SourceID: sourceID, SetID: setID}]
}

// Create adds a record for sourceID over resources; resources[0] becomes
// the primary resource. An existing record with the same key is returned
// unchanged.
func (r *Repository) Create(sourceID string, resources []resource.Resource) *Record {
	key := Key{SourceID: sourceID, SetID: resource.SetID(resources)}
	if rec, ok := r.records[key]; ok {
		return rec
	}
	rec := newRecord(key, resources, r.exec, r.logger)
	r.records[key] = rec
	r.order = append(r.order, key)
	r.logger.Debug("binding record created", log.String("record", key.String()))
	return rec
}

// Remove drops rec after detaching its use cases.
func (r *Repository) Remove(rec *Record) {
	if r.records[rec.key] != rec {
		return
	}
	rec.detachAll()
	rec.setActive(false)
	if r.active == rec {
		r.active = nil
	}
	delete(r.records, rec.key)
	for i, k := range r.order {
		if k == rec.key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// RemoveUsing drops every record whose resource set contains one of ids and
// reports how many were dropped.
func (r *Repository) RemoveUsing(ids []string) int {
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}
	dropped := 0
	for _, rec := range r.Records() {
		for _, res := range rec.resources {
			if gone[res.Info().ID] {
				r.Remove(rec)
				dropped++
				break
			}
		}
	}
	return dropped
}

// Records returns every record in creation order.
func (r *Repository) Records() []*Record {
	out := make([]*Record, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.records[k])
	}
	return out
}

// Active returns the prioritized record, or nil.
func (r *Repository) Active() *Record {
	return r.active
}

// BoundElsewhere returns the first use case bound to a record other than
// target, along with that record.
func (r *Repository) BoundElsewhere(target *Record, useCases []usecase.UseCase) (usecase.UseCase, *Record, bool) {
	for _, uc := range useCases {
		for _, rec := range r.Records() {
			if rec != target && rec.IsBound(uc) {
				return uc, rec, true
			}
		}
	}
	return nil, nil, false
}

// IsBound reports whether uc is attached to any record.
func (r *Repository) IsBound(uc usecase.UseCase) bool {
	for _, rec := range r.records {
		if rec.IsBound(uc) {
			return true
		}
	}
	return false
}

// Attach adds useCases to rec. On error rec is unchanged.
func (r *Repository) Attach(rec *Record, useCases []usecase.UseCase) error {
	return rec.attach(useCases)
}

// Prioritize makes rec the only active record. The previously active record
// is demoted and gives up its resource claim.
func (r *Repository) Prioritize(rec *Record) {
	if r.active == rec {
		return
	}
	if prev := r.active; prev != nil {
		prev.setActive(false)
		r.logger.Debug("binding record demoted",
			log.String("record", prev.key.String()),
			log.Int("use_cases", len(prev.useCases)))
	}
	r.active = rec
	rec.setActive(true)
	r.logger.Info("binding record prioritized",
		log.String("record", rec.key.String()),
		log.Strings("use_cases", usecase.IDs(rec.useCases)))
}

// Unbind detaches useCases from whichever records hold them. Unknown use
// cases are ignored.
func (r *Repository) Unbind(useCases []usecase.UseCase) int {
	removed := 0
	for _, rec := range r.Records() {
		removed += rec.detach(useCases)
	}
	return removed
}

// UnbindAll detaches every use case from every record.
func (r *Repository) UnbindAll() {
	for _, rec := range r.Records() {
		rec.detachAll()
	}
}

// ActiveUseCases returns the use cases of the active record, or nil.
func (r *Repository) ActiveUseCases() []usecase.UseCase {
	if r.active == nil {
		return nil
	}
	return r.active.UseCases()
}

// Clear removes every record and returns the futures of their final
// releases.
func (r *Repository) Clear() []*future.Future[future.Void] {
	var pending []*future.Future[future.Void]
	for _, rec := range r.Records() {
		r.Remove(rec)
		pending = append(pending, rec.Settled())
	}
	return pending
}

// Settle waits for every record's scheduled claim changes.
func (r *Repository) Settle(ctx context.Context) error {
	for _, rec := range r.Records() {
		select {
		case <-rec.Settled().Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
