package sync

import (
	"sort"

	"github.com/stacklok/toolhive-bucket-sync/internal/records"
	"github.com/stacklok/toolhive-bucket-sync/internal/translate"
)

// Action is the kind of change applied to a bucket
type Action string

const (
	// ActionCreate creates a bucket for a source that has none
	ActionCreate Action = "create"

	// ActionDelete removes a bucket whose source disappeared
	ActionDelete Action = "delete"

	// ActionUpdate replaces a bucket whose source is newer
	ActionUpdate Action = "update"
)

// Plan holds the ids to create, delete and update. An id appears in at most
// one set and every set is sorted.
type Plan struct {
	Create []string `json:"create"`
	Delete []string `json:"delete"`
	Update []string `json:"update"`
}

// Empty reports whether the plan has nothing to apply
func (p *Plan) Empty() bool {
	return p.Size() == 0
}

// Size returns the number of planned ids across all sets
func (p *Plan) Size() int {
	if p == nil {
		return 0
	}
	return len(p.Create) + len(p.Delete) + len(p.Update)
}

// NewPlan compares the source and bucket indexes.
//
// An id present in both indexes is updated only when the source timestamp is
// strictly after the bucket timestamp. Source timestamps that none of the
// parsers understand are treated as not newer.
func NewPlan(source records.SourceIndex, target records.TargetIndex, parsers ...translate.TimeParser) *Plan {
	plan := &Plan{
		Create: []string{},
		Delete: []string{},
		Update: []string{},
	}

	for id, raw := range source {
		targetModified, exists := target[id]
		if !exists {
			plan.Create = append(plan.Create, id)
			continue
		}

		sourceModified, err := translate.ParseTime(raw, parsers...)
		if err != nil {
			continue
		}
		if sourceModified.After(targetModified) {
			plan.Update = append(plan.Update, id)
		}
	}

	for id := range target {
		if _, exists := source[id]; !exists {
			plan.Delete = append(plan.Delete, id)
		}
	}

	sort.Strings(plan.Create)
	sort.Strings(plan.Delete)
	sort.Strings(plan.Update)
	return plan
}

// Skipped returns the shared ids whose source timestamp could not be parsed
func Skipped(source records.SourceIndex, target records.TargetIndex, parsers ...translate.TimeParser) []string {
	skipped := []string{}
	for id, raw := range source {
		if _, exists := target[id]; !exists {
			continue
		}
		if _, err := translate.ParseTime(raw, parsers...); err != nil {
			skipped = append(skipped, id)
		}
	}
	sort.Strings(skipped)
	return skipped
}
