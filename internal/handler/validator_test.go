package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennode-labs/fieldnode/internal/domain"
)

type kindTestStruct struct {
	Kind         string `validate:"kind"`
	RemoteNodeID string `validate:"required"`
}

func TestValidator_KindValidation(t *testing.T) {
	InitValidator()
	v := GetValidator()

	tests := []struct {
		name    string
		kind    string
		wantErr bool
	}{
		{"catalog kind", domain.KindLanguages, false},
		{"core kind", domain.KindRecordings, false},
		{"every declared kind", "", false}, // empty allowed (not required)
		{"unknown kind", "phonemes", true},
		{"typo", "recording", true},
		{"uppercase is not a kind", "LANGUAGES", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := kindTestStruct{Kind: tt.kind, RemoteNodeID: "node-b"}

			err := v.ValidateStruct(input)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("all declared kinds validate", func(t *testing.T) {
		for _, kind := range domain.KindOrder {
			err := v.ValidateStruct(kindTestStruct{Kind: kind, RemoteNodeID: "node-b"})
			assert.NoError(t, err, "kind %q should validate", kind)
		}
	})
}

func TestFormatValidationError(t *testing.T) {
	InitValidator()
	v := GetValidator()

	t.Run("missing required field", func(t *testing.T) {
		err := v.ValidateStruct(kindTestStruct{Kind: domain.KindSubjects})
		require.Error(t, err)

		formatted := FormatValidationError(err)
		assert.Equal(t, "This field is required", formatted["remotenodeid"])
	})

	t.Run("unknown kind", func(t *testing.T) {
		err := v.ValidateStruct(kindTestStruct{Kind: "phonemes", RemoteNodeID: "node-b"})
		require.Error(t, err)

		formatted := FormatValidationError(err)
		assert.Equal(t, "Unknown entity kind", formatted["kind"])
	})

	t.Run("non-validation error", func(t *testing.T) {
		formatted := FormatValidationError(assert.AnError)
		assert.Equal(t, "Invalid request format", formatted["error"])
	})

	t.Run("nil error", func(t *testing.T) {
		assert.Nil(t, FormatValidationError(nil))
	})
}
