package dialect

// ColumnKind is the tag discriminating ColumnType variants.
type ColumnKind int

const (
	// KindOther is any logical type without ClickHouse-specific coercion.
	KindOther ColumnKind = iota
	// KindMap is an untyped map persisted as JSON text.
	KindMap
	// KindParameterizedMap is a map with a declared inner value type.
	KindParameterizedMap
	// KindEmbeddedDocument is a struct persisted as JSON text.
	KindEmbeddedDocument
	// KindBinaryID is a surrogate-key identifier persisted as 36-character text.
	KindBinaryID
	// KindUUID is the canonical UUID type persisted as 36-character text.
	KindUUID
)

// ColumnType describes the logical type the mapping stack wants to persist
// for one column. It is an immutable value object; build it with the factory
// functions below.
type ColumnType struct {
	kind   ColumnKind
	inner  *ColumnType
	mapper DocumentMapper
}

// MapType is a factory method for an untyped map column.
func MapType() ColumnType {
	return ColumnType{kind: KindMap}
}

// ParameterizedMapType is a factory method for a map column whose values
// have the given inner type.
func ParameterizedMapType(inner ColumnType) ColumnType {
	return ColumnType{kind: KindParameterizedMap, inner: &inner}
}

// EmbeddedDocumentType is a factory method for an embedded document column
// materialized and flattened through the given mapper.
func EmbeddedDocumentType(mapper DocumentMapper) ColumnType {
	return ColumnType{kind: KindEmbeddedDocument, mapper: mapper}
}

// BinaryIDType is a factory method for a surrogate-key identifier column.
func BinaryIDType() ColumnType {
	return ColumnType{kind: KindBinaryID}
}

// UUIDType is a factory method for a canonical UUID column.
func UUIDType() ColumnType {
	return ColumnType{kind: KindUUID}
}

// OtherType is a factory method for any other logical type; its coercion is
// fully delegated to the underlying type's own chains.
func OtherType(inner ColumnType) ColumnType {
	return ColumnType{kind: KindOther, inner: &inner}
}

// Kind returns the variant tag.
func (ct ColumnType) Kind() ColumnKind {
	return ct.kind
}

// Inner returns the declared underlying type, or the zero ColumnType when
// none was declared.
func (ct ColumnType) Inner() ColumnType {
	if ct.inner == nil {
		return ColumnType{}
	}

	return *ct.inner
}

// Mapper returns the document mapper for embedded document columns.
func (ct ColumnType) Mapper() DocumentMapper {
	return ct.mapper
}
