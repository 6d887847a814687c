package dialect_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/columnarkit/clickhouse-dialect-go/dialect"
)

func Test_GenerateIdentifier_ProducesCanonicalForm(t *testing.T) {
	tests := []struct {
		name       string
		columnType dialect.ColumnType
	}{
		{name: "binary id", columnType: dialect.BinaryIDType()},
		{name: "uuid", columnType: dialect.UUIDType()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generated, ok := dialect.GenerateIdentifier(tt.columnType)
			require.True(t, ok)

			assert.Len(t, generated, dialect.CanonicalIdentifierLength)

			parsed, err := uuid.Parse(generated)
			require.NoError(t, err)
			assert.Equal(t, parsed.String(), generated, "generated value must already be canonical")
		})
	}
}

func Test_GenerateIdentifier_IntegerSerialYieldsNoValue(t *testing.T) {
	generated, ok := dialect.GenerateIdentifier(dialect.OtherType(dialect.ColumnType{}))
	assert.False(t, ok, "auto-incrementing integer identifiers are the server's business")
	assert.Empty(t, generated)
}

func Test_GenerateIdentifier_DocumentColumnYieldsNoValue(t *testing.T) {
	columnType := dialect.EmbeddedDocumentType(dialect.StructMapper(struct{}{}))

	generated, ok := dialect.GenerateIdentifier(columnType)
	assert.False(t, ok, "a document column has no surrogate key to generate")
	assert.Empty(t, generated)
}

func Test_GenerateIdentifier_NoCollisions(t *testing.T) {
	const generations = 10_000

	seen := make(map[string]struct{}, generations)

	for i := 0; i < generations; i++ {
		generated, ok := dialect.GenerateIdentifier(dialect.BinaryIDType())
		require.True(t, ok)

		_, exists := seen[generated]
		require.False(t, exists, "two generations collided")

		seen[generated] = struct{}{}
	}
}

//nolint:funlen
func Test_IdentifierDumperChain_Canonicalization(t *testing.T) {
	tests := []struct {
		name        string
		value       any
		expected    any
		expectError bool
	}{
		{
			name:     "canonical lowercase form passes",
			value:    "a3f6b0a2-4f7e-44f5-9d35-0c6f0c1a9f00",
			expected: "a3f6b0a2-4f7e-44f5-9d35-0c6f0c1a9f00",
		},
		{
			name:     "uppercase form is canonicalized to lowercase",
			value:    "A3F6B0A2-4F7E-44F5-9D35-0C6F0C1A9F00",
			expected: "a3f6b0a2-4f7e-44f5-9d35-0c6f0c1a9f00",
		},
		{
			name:        "braced form is rejected",
			value:       "{a3f6b0a2-4f7e-44f5-9d35-0c6f0c1a9f00}",
			expectError: true,
		},
		{
			name:        "urn form is rejected",
			value:       "urn:uuid:a3f6b0a2-4f7e-44f5-9d35-0c6f0c1a9f00",
			expectError: true,
		},
		{
			name:        "32 character hex without hyphens is rejected",
			value:       "a3f6b0a24f7e44f59d350c6f0c1a9f00",
			expectError: true,
		},
		{
			name:        "arbitrary text is rejected",
			value:       "not-an-identifier-at-all-really-nope",
			expectError: true,
		},
		{
			name:        "binary form is rejected",
			value:       []byte{0xa3, 0xf6, 0xb0, 0xa2},
			expectError: true,
		},
		{
			name:        "nil is rejected",
			value:       nil,
			expectError: true,
		},
	}

	for _, columnType := range []dialect.ColumnType{dialect.BinaryIDType(), dialect.UUIDType()} {
		dump, err := dialect.ResolveDumperChain(columnType, dialect.PassthroughResolver{})
		require.NoError(t, err)

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				stored, dumpErr := dump.Apply(tt.value)

				if tt.expectError {
					var validationErr *dialect.ValidationError
					assert.ErrorAs(t, dumpErr, &validationErr)
					assert.Nil(t, stored, "no partial value may be produced")

					return
				}

				require.NoError(t, dumpErr)
				assert.Equal(t, tt.expected, stored)
			})
		}
	}
}
