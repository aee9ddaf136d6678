package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string `validate:"required,min=3"`
	Category string `validate:"oneof=task meeting"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(sample{Name: "abc", Category: "task"}))

	err := Struct(sample{Name: "a", Category: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Name' failed 'min'")
	assert.Contains(t, err.Error(), "field 'Category' failed 'oneof'")
}
