package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs_SeparateValue(t *testing.T) {
	got := FilterArgs([]string{"-a", ":8080", "-x", "junk"}, []string{"-a"})
	assert.Equal(t, []string{"-a", ":8080"}, got)
}

func TestFilterArgs_EqualsForm(t *testing.T) {
	got := FilterArgs([]string{"--config=conf.json", "-d=dsn", "-z=nope"}, []string{"--config", "-d"})
	assert.Equal(t, []string{"--config=conf.json", "-d=dsn"}, got)
}

func TestFilterArgs_BoolFlagWithoutValue(t *testing.T) {
	got := FilterArgs([]string{"-v", "-a", ":9090"}, []string{"-v"})
	assert.Equal(t, []string{"-v"}, got)
}

func TestFilterArgs_EmptyInput(t *testing.T) {
	got := FilterArgs(nil, []string{"-a"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
