package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFields(t *testing.T) {
	fields, err := ParseFields([]string{"table=staging_x", "limit=3", `cols=["a","b"]`, "empty="})
	require.NoError(t, err)
	assert.Equal(t, "staging_x", fields["table"])
	assert.Equal(t, 3.0, fields["limit"])
	assert.Equal(t, []any{"a", "b"}, fields["cols"])
	assert.Equal(t, "", fields["empty"])

	_, err = ParseFields([]string{"novalue"})
	assert.Error(t, err)
	_, err = ParseFields([]string{"=x"})
	assert.Error(t, err)
}
