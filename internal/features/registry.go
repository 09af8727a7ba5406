package features

import (
	"fmt"
	"strings"

	"github.com/retailai/basketfeat/internal/domain"
)

// Input is the fixed-shape payload handed to every extractor.
//
// Index is the key set the output must align to. Transactions are the past
// (pre-target) rows with derived temporal columns populated; Orders is the
// matching order projection; TargetTransactions is nil outside training and
// is only consumed by label-producing extractors. Extractors must ignore
// fields they do not need.
type Input struct {
	Index              []domain.UserItem
	Transactions       []domain.Transaction
	Orders             []domain.Order
	Products           []domain.Product
	TargetTransactions []domain.Transaction
}

// Func computes one or more named feature columns over the input index.
type Func func(Input) (*Table, error)

// Extractor pairs a globally unique name with its computation. The name is
// the cache and provenance key.
type Extractor struct {
	Name string
	Fn   Func
}

// ExtractorExistsError reports an attempt to register names already present.
type ExtractorExistsError struct {
	Names []string
}

func (e *ExtractorExistsError) Error() string {
	return fmt.Sprintf("feature extractors already registered: %s",
		strings.Join(e.Names, ", "))
}

// Registry holds named extractors in registration order. It is owned by the
// assembler that created it; there is no process-wide registry.
type Registry struct {
	ordered []Extractor
	names   map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]bool)}
}

// Register adds extractors, preserving call order. Registration is all or
// nothing: any duplicate name fails the whole call with
// ExtractorExistsError.
func (r *Registry) Register(extractors ...Extractor) error {
	var duplicates []string
	batch := make(map[string]bool, len(extractors))
	for _, ext := range extractors {
		if r.names[ext.Name] || batch[ext.Name] {
			duplicates = append(duplicates, ext.Name)
		}
		batch[ext.Name] = true
	}
	if len(duplicates) > 0 {
		return &ExtractorExistsError{Names: duplicates}
	}

	for _, ext := range extractors {
		r.names[ext.Name] = true
		r.ordered = append(r.ordered, ext)
	}
	return nil
}

// Len returns the number of registered extractors.
func (r *Registry) Len() int {
	return len(r.ordered)
}

// List returns registered extractors in registration order.
func (r *Registry) List() []Extractor {
	out := make([]Extractor, len(r.ordered))
	copy(out, r.ordered)
	return out
}
