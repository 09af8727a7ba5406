package features

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrExtractorCall marks a failure inside an extractor's own execution.
	ErrExtractorCall = errors.New("extractor call failed")
	// ErrExtractorInvalidOutput marks an extractor output that is not a table
	// aligned to the fixed index.
	ErrExtractorInvalidOutput = errors.New("extractor output invalid")
)

// Diagnostic records the failure of a single extractor during one extraction
// run. Failures are values, not terminating errors: one broken extractor
// never aborts the run.
type Diagnostic struct {
	Extractor string
	Err       error
}

// WrapFunc decorates a named extractor before invocation. The cache adapter
// plugs in here.
type WrapFunc func(name string, fn Func) Func

// Assembler accumulates feature columns over the fixed (user, item) index.
//
// Extractors run strictly sequentially in registration order. Output columns
// whose names collide with already-registered features are renamed with an
// incrementing numeric suffix, never overwritten or dropped. The provenance
// map (column name -> extractor name) only grows; it resets with a new
// Assembler.
type Assembler struct {
	input      Input
	registry   *Registry
	matrix     *Table
	provenance map[string]string
	wrap       WrapFunc
	logger     *zap.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithWrapper installs an extractor decorator, e.g. the file cache.
func WithWrapper(wrap WrapFunc) Option {
	return func(a *Assembler) { a.wrap = wrap }
}

// WithLogger sets the assembler's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Assembler) { a.logger = logger }
}

// NewAssembler creates an assembler over the input's index with an empty
// registry and an empty feature matrix.
func NewAssembler(input Input, opts ...Option) *Assembler {
	a := &Assembler{
		input:      input,
		registry:   NewRegistry(),
		matrix:     NewTable(input.Index),
		provenance: make(map[string]string),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Register adds extractors to the assembler's registry.
func (a *Assembler) Register(extractors ...Extractor) error {
	return a.registry.Register(extractors...)
}

// ExtractFeatures runs every registered extractor, in registration order,
// and joins the surviving outputs into the feature matrix. Per-extractor
// failures are collected and returned as diagnostics; extraction continues.
//
// Calling ExtractFeatures again re-runs every extractor and re-joins the
// outputs under incremented suffixes. That is intentional: repeated
// extraction over changed underlying data (e.g. after a cache warm) is a
// supported workflow.
func (a *Assembler) ExtractFeatures() []Diagnostic {
	if a.registry.Len() == 0 {
		a.logger.Info("no feature extractors registered; nothing to extract")
		return nil
	}

	var diagnostics []Diagnostic
	for _, ext := range a.registry.List() {
		a.logger.Info("using extractor", zap.String("extractor", ext.Name))

		output, err := a.invoke(ext)
		if err == nil {
			err = a.validate(output)
		}
		if err != nil {
			a.logger.Warn("extractor failed",
				zap.String("extractor", ext.Name),
				zap.Error(err))
			diagnostics = append(diagnostics, Diagnostic{Extractor: ext.Name, Err: err})
			continue
		}

		a.join(ext.Name, output)
	}
	return diagnostics
}

// invoke calls the (possibly wrapped) extractor, converting errors and
// panics into ErrExtractorCall.
func (a *Assembler) invoke(ext Extractor) (output *Table, err error) {
	fn := ext.Fn
	if a.wrap != nil {
		fn = a.wrap(ext.Name, fn)
	}

	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = fmt.Errorf("%w: panic: %v", ErrExtractorCall, r)
		}
	}()

	output, callErr := fn(a.input)
	if callErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrExtractorCall, callErr)
	}
	return output, nil
}

// validate checks the output is a table aligned exactly to the fixed index.
func (a *Assembler) validate(output *Table) error {
	if output == nil {
		return fmt.Errorf("%w: expected a table, got nil", ErrExtractorInvalidOutput)
	}
	if !a.matrix.SameIndex(output) {
		return fmt.Errorf("%w: index does not match the fixed (user, item) index",
			ErrExtractorInvalidOutput)
	}
	for _, col := range output.Columns {
		if len(col.Values) != len(output.Index) {
			return fmt.Errorf("%w: column %q has %d values for %d index entries",
				ErrExtractorInvalidOutput, col.Name, len(col.Values), len(output.Index))
		}
	}
	return nil
}

// join renames colliding columns, records provenance and appends the columns
// to the matrix.
func (a *Assembler) join(extractorName string, output *Table) {
	for _, col := range output.Columns {
		name := uniqueName(col.Name, a.provenance)
		if name != col.Name {
			a.logger.Info("feature renamed",
				zap.String("old", col.Name),
				zap.String("new", name),
				zap.String("already_extracted_by", a.provenance[col.Name]),
				zap.String("extractor", extractorName))
		}
		a.provenance[name] = extractorName
		a.matrix.Columns = append(a.matrix.Columns, Column{Name: name, Values: col.Values})
	}
	a.logger.Info("extracted features",
		zap.String("extractor", extractorName),
		zap.Strings("columns", output.ColumnNames()))
}

// Matrix returns the accumulated feature table.
func (a *Assembler) Matrix() *Table {
	return a.matrix
}

// Provenance returns a copy of the column -> extractor mapping.
func (a *Assembler) Provenance() map[string]string {
	out := make(map[string]string, len(a.provenance))
	for name, extractor := range a.provenance {
		out[name] = extractor
	}
	return out
}
