package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("WIKIFORGE_TEST_VAR", "value123")

	out := ExpandEnv([]byte("key: ${WIKIFORGE_TEST_VAR}\nother: $WIKIFORGE_TEST_VAR"))
	assert.Equal(t, "key: value123\nother: value123", string(out))
}

func TestExpandEnv_MissingVarExpandsEmpty(t *testing.T) {
	out := ExpandEnv([]byte("key: ${WIKIFORGE_DOES_NOT_EXIST}"))
	assert.Equal(t, "key: ", string(out))
}
