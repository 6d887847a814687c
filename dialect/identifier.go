package dialect

import (
	"github.com/google/uuid"
)

// Stored identifier columns hold the canonical lowercase-hyphenated textual
// form in a fixed-length text column.
const CanonicalIdentifierLength = 36

// GenerateIdentifier returns a new surrogate-key value for an identifier
// column. Identifier columns yield a random canonical-form UUID; plain
// auto-incrementing integer identifiers are unsupported and yield no value,
// any sequence mechanism is the server's business.
func GenerateIdentifier(columnType ColumnType) (string, bool) {
	switch columnType.Kind() {
	case KindBinaryID, KindUUID:
		return uuid.NewString(), true
	default:
		return "", false
	}
}

// canonicalizeIdentifierStep accepts only the canonical 36-character textual
// identifier form, never a binary form, and lowercases it. The column name
// on the ValidationError is bound by the schema glue.
func canonicalizeIdentifierStep(value any) (any, error) {
	text, ok := value.(string)
	if !ok {
		return nil, &ValidationError{Value: value}
	}

	if len(text) != CanonicalIdentifierLength {
		return nil, &ValidationError{Value: value}
	}

	parsed, err := uuid.Parse(text)
	if err != nil {
		return nil, &ValidationError{Value: value}
	}

	return parsed.String(), nil
}
