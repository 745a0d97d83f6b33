package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetters(t *testing.T) {
	t.Setenv("ENDPOINT_STRING", "rabbit")
	t.Setenv("ENDPOINT_INT", " 5673 ")
	t.Setenv("ENDPOINT_BAD_INT", "many")
	t.Setenv("ENDPOINT_BOOL", "true")
	t.Setenv("ENDPOINT_EMPTY", "")

	assert.Equal(t, "rabbit", GetString("ENDPOINT_STRING", "fallback"))
	assert.Equal(t, "", GetString("ENDPOINT_EMPTY", "fallback"))
	assert.Equal(t, "fallback", GetString("ENDPOINT_UNSET", "fallback"))

	assert.Equal(t, 5673, GetInt("ENDPOINT_INT", 1))
	assert.Equal(t, 1, GetInt("ENDPOINT_BAD_INT", 1))
	assert.Equal(t, 1, GetInt("ENDPOINT_UNSET", 1))

	assert.True(t, GetBool("ENDPOINT_BOOL", false))
	assert.False(t, GetBool("ENDPOINT_STRING", false))
	assert.True(t, GetBool("ENDPOINT_UNSET", true))
}
