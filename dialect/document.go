package dialect

import (
	"fmt"
	"reflect"

	jsoniter "github.com/json-iterator/go"
)

// The stored interchange text must survive round trips losslessly, so the
// stdlib-compatible config is used rather than ConfigFastest.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DocumentMapper converts between the flattened field map stored for an
// embedded document column and the in-memory document value.
type DocumentMapper interface {
	Materialize(fields map[string]any) (any, error)
	Flatten(document any) (map[string]any, error)
}

// StructMapper builds a DocumentMapper for the struct type of the given
// prototype value, using JSON field tags for the stored field names.
func StructMapper(prototype any) DocumentMapper {
	documentType := reflect.TypeOf(prototype)
	if documentType != nil && documentType.Kind() == reflect.Pointer {
		documentType = documentType.Elem()
	}

	return structMapper{documentType: documentType}
}

type structMapper struct {
	documentType reflect.Type
}

// Materialize builds a new document value from the decoded field map.
func (m structMapper) Materialize(fields map[string]any) (any, error) {
	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	document := reflect.New(m.documentType)
	if err = json.Unmarshal(encoded, document.Interface()); err != nil {
		return nil, &DecodeError{Text: string(encoded), Err: err}
	}

	return document.Elem().Interface(), nil
}

// Flatten converts the document value into the field map to be stored.
func (m structMapper) Flatten(document any) (map[string]any, error) {
	encoded, err := json.Marshal(document)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	if err = json.Unmarshal(encoded, &fields); err != nil {
		return nil, fmt.Errorf("flattening %s document failed: %w", m.documentType, err)
	}

	return fields, nil
}
