// Package translate maps legacy source documents into bucket records.
//
// Translation is pure: no I/O, deterministic for a given document. Timestamps
// are parsed through an ordered chain of legacy encodings (see ParseTime).
package translate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/stacklok/toolhive-bucket-sync/internal/records"
)

// AccessRightReadWrite is granted to every community listed on a source
const AccessRightReadWrite = "rw"

// ErrTranslation is wrapped by every error returned from Translate
var ErrTranslation = errors.New("translation failed")

// Error describes why a source document could not be translated
type Error struct {
	SourceID string
	Field    string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source %s: field %s: %v", e.SourceID, e.Field, e.Err)
	}
	return fmt.Sprintf("source %s: field %s is invalid", e.SourceID, e.Field)
}

// Is reports ErrTranslation for every translation error
func (*Error) Is(target error) bool {
	return target == ErrTranslation
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Translator converts a source record into a bucket
//
//go:generate mockgen -destination=mocks/mock_translator.go -package=mocks github.com/stacklok/toolhive-bucket-sync/internal/translate Translator
type Translator interface {
	Translate(src *records.SourceRecord) (*records.TargetRecord, error)
}

// SourceTranslator translates legacy source JSON documents
type SourceTranslator struct {
	parsers []TimeParser
}

// NewSourceTranslator creates a translator using the given timestamp parsers,
// or the legacy chain when none are given
func NewSourceTranslator(parsers ...TimeParser) *SourceTranslator {
	if len(parsers) == 0 {
		parsers = LegacyTimeParsers
	}
	return &SourceTranslator{parsers: parsers}
}

// TimeParsers returns the timestamp chain used for "created" and "modified"
func (t *SourceTranslator) TimeParsers() []TimeParser {
	return t.parsers
}

// Translate builds a bucket from the source document
func (t *SourceTranslator) Translate(src *records.SourceRecord) (*records.TargetRecord, error) {
	if src == nil {
		return nil, &Error{Field: "document", Err: errors.New("missing source")}
	}
	if !gjson.ValidBytes(src.Payload) {
		return nil, &Error{SourceID: src.ID, Field: "document", Err: errors.New("malformed JSON")}
	}
	doc := gjson.ParseBytes(src.Payload)

	// The indexed id and modified value are what the planner compares, so they
	// win over the document's own fields.
	key := src.ID
	if key == "" {
		key = doc.Get("key").String()
	}

	dataBucket := doc.Get("processingPipeline.0.data_bucket")
	if !dataBucket.IsObject() {
		return nil, &Error{SourceID: key, Field: "processingPipeline.0.data_bucket", Err: errors.New("missing bucket definition")}
	}
	fullName := dataBucket.Get("full_name").String()
	if fullName == "" {
		return nil, &Error{SourceID: key, Field: "processingPipeline.0.data_bucket.full_name", Err: errors.New("missing")}
	}

	created, err := ParseTime(doc.Get("created").String(), t.parsers...)
	if err != nil {
		return nil, &Error{SourceID: key, Field: "created", Err: err}
	}
	modifiedRaw := src.Modified
	if modifiedRaw == "" {
		modifiedRaw = doc.Get("modified").String()
	}
	modified, err := ParseTime(modifiedRaw, t.parsers...)
	if err != nil {
		return nil, &Error{SourceID: key, Field: "modified", Err: err}
	}

	return &records.TargetRecord{
		ID:           key,
		FullName:     fullName,
		DisplayName:  doc.Get("title").String(),
		Description:  doc.Get("description").String(),
		OwnerID:      doc.Get("ownerId").String(),
		Tags:         tagSet(doc.Get("tags")),
		AccessRights: accessRights(doc.Get("communityIds")),
		Suspended:    ShouldSuspend(src),
		Created:      created,
		Modified:     modified,
		Definition:   []byte(dataBucket.Raw),
	}, nil
}

// ShouldSuspend reports whether the source has been switched off in the legacy
// system, which is encoded as a negative search cycle
func ShouldSuspend(src *records.SourceRecord) bool {
	cycle := gjson.GetBytes(src.Payload, "searchCycle_secs")
	if !cycle.Exists() {
		return false
	}
	return cycle.Int() < 0
}

func tagSet(tags gjson.Result) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	tags.ForEach(func(_, v gjson.Result) bool {
		tag := v.String()
		if _, ok := seen[tag]; !ok && tag != "" {
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
		return true
	})
	sort.Strings(out)
	return out
}

func accessRights(communities gjson.Result) map[string]string {
	rights := make(map[string]string)
	communities.ForEach(func(_, v gjson.Result) bool {
		if id := v.String(); id != "" {
			rights[id] = AccessRightReadWrite
		}
		return true
	})
	return rights
}
