package dialect

import (
	"errors"
	"fmt"
	"reflect"
)

// Step is a single pure conversion applied to a column value.
type Step func(value any) (any, error)

// LoaderChain is the ordered sequence of steps converting the stored
// representation into the in-memory value. The first step receives the raw
// driver value.
type LoaderChain []Step

// DumperChain is the ordered sequence of steps converting the in-memory
// value into what is physically stored. The final step produces the stored
// representation.
type DumperChain []Step

// Apply runs the chain in order, feeding each step's output into the next.
func (c LoaderChain) Apply(value any) (any, error) {
	return applySteps(c, value)
}

// Apply runs the chain in order, feeding each step's output into the next.
func (c DumperChain) Apply(value any) (any, error) {
	return applySteps(c, value)
}

func applySteps(steps []Step, value any) (any, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyChain
	}

	var err error
	for _, step := range steps {
		value, err = step(value)
		if err != nil {
			return nil, err
		}
	}

	return value, nil
}

// BaseResolver supplies the underlying type's own chains, i.e. whatever the
// mapping stack would do for a column without ClickHouse-specific coercion.
type BaseResolver interface {
	LoaderChain(columnType ColumnType) (LoaderChain, error)
	DumperChain(columnType ColumnType) (DumperChain, error)
}

// PassthroughResolver is the default BaseResolver: identity chains.
type PassthroughResolver struct{}

// LoaderChain returns a single identity step.
func (PassthroughResolver) LoaderChain(_ ColumnType) (LoaderChain, error) {
	return LoaderChain{identityStep}, nil
}

// DumperChain returns a single identity step.
func (PassthroughResolver) DumperChain(_ ColumnType) (DumperChain, error) {
	return DumperChain{identityStep}, nil
}

type loaderRule func(columnType ColumnType, base BaseResolver) (LoaderChain, error)
type dumperRule func(columnType ColumnType, base BaseResolver) (DumperChain, error)

// The dispatch tables are keyed by ColumnKind and consulted once per column
// at schema-compile time, not per row.
var loaderRules = map[ColumnKind]loaderRule{
	KindMap:              mapLoaderRule,
	KindParameterizedMap: mapLoaderRule,
	KindEmbeddedDocument: documentLoaderRule,
	KindBinaryID:         identityLoaderRule,
	KindUUID:             identityLoaderRule,
}

var dumperRules = map[ColumnKind]dumperRule{
	KindMap:              mapDumperRule,
	KindParameterizedMap: mapDumperRule,
	KindEmbeddedDocument: documentDumperRule,
	KindBinaryID:         identifierDumperRule,
	KindUUID:             identifierDumperRule,
}

// ResolveLoaderChain produces the ordered loader chain (storage to memory)
// for the given column type. Types without a ClickHouse-specific rule pass
// through the underlying type's own chain unchanged.
func ResolveLoaderChain(columnType ColumnType, base BaseResolver) (LoaderChain, error) {
	if rule, ok := loaderRules[columnType.Kind()]; ok {
		return rule(columnType, base)
	}

	chain, err := base.LoaderChain(columnType.Inner())
	if err != nil {
		return nil, errors.Join(ErrResolvingChainFailed, err)
	}

	return chain, nil
}

// ResolveDumperChain produces the ordered dumper chain (memory to storage)
// for the given column type. Types without a ClickHouse-specific rule pass
// through the underlying type's own chain unchanged.
func ResolveDumperChain(columnType ColumnType, base BaseResolver) (DumperChain, error) {
	if rule, ok := dumperRules[columnType.Kind()]; ok {
		return rule(columnType, base)
	}

	chain, err := base.DumperChain(columnType.Inner())
	if err != nil {
		return nil, errors.Join(ErrResolvingChainFailed, err)
	}

	return chain, nil
}

func mapLoaderRule(columnType ColumnType, base BaseResolver) (LoaderChain, error) {
	innerChain, err := base.LoaderChain(columnType.Inner())
	if err != nil {
		return nil, errors.Join(ErrResolvingChainFailed, err)
	}

	return append(LoaderChain{decodeStoredTextStep}, innerChain...), nil
}

func documentLoaderRule(columnType ColumnType, _ BaseResolver) (LoaderChain, error) {
	mapper := columnType.Mapper()
	if mapper == nil {
		return nil, ErrNilDocumentMapper
	}

	return LoaderChain{decodeStoredTextStep, materializeStep(mapper)}, nil
}

func identityLoaderRule(_ ColumnType, _ BaseResolver) (LoaderChain, error) {
	return LoaderChain{identityStep}, nil
}

func mapDumperRule(columnType ColumnType, base BaseResolver) (DumperChain, error) {
	innerChain, err := base.DumperChain(columnType.Inner())
	if err != nil {
		return nil, errors.Join(ErrResolvingChainFailed, err)
	}

	return append(append(DumperChain{}, innerChain...), encodeStructuredStep), nil
}

func documentDumperRule(columnType ColumnType, _ BaseResolver) (DumperChain, error) {
	mapper := columnType.Mapper()
	if mapper == nil {
		return nil, ErrNilDocumentMapper
	}

	return DumperChain{flattenStep(mapper), encodeStructuredStep}, nil
}

func identifierDumperRule(_ ColumnType, _ BaseResolver) (DumperChain, error) {
	return DumperChain{canonicalizeIdentifierStep}, nil
}

func identityStep(value any) (any, error) {
	return value, nil
}

// decodeStoredTextStep parses textual input as JSON; structured input that
// was already decoded by the driver passes through unchanged.
func decodeStoredTextStep(value any) (any, error) {
	var raw []byte

	switch typed := value.(type) {
	case string:
		raw = []byte(typed)
	case []byte:
		raw = typed
	default:
		return value, nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &DecodeError{Text: string(raw), Err: err}
	}

	return decoded, nil
}

// encodeStructuredStep serializes map-like values to JSON text; any other
// value passes through unchanged, a scalar is never re-encoded.
func encodeStructuredStep(value any) (any, error) {
	if value == nil || reflect.ValueOf(value).Kind() != reflect.Map {
		return value, nil
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	return string(encoded), nil
}

func materializeStep(mapper DocumentMapper) Step {
	return func(value any) (any, error) {
		fields, ok := value.(map[string]any)
		if !ok {
			return nil, &DecodeError{Text: fmt.Sprintf("%v", value), Err: errDocumentNotAnObject}
		}

		return mapper.Materialize(fields)
	}
}

func flattenStep(mapper DocumentMapper) Step {
	return func(value any) (any, error) {
		return mapper.Flatten(value)
	}
}
