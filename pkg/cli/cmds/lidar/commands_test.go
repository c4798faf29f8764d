package lidar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtocolLine(t *testing.T) {
	line, err := ProtocolLine("GET_CONFIG", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "GET_CONFIG", line)

	line, err = ProtocolLine("SET_IP", "ADDR", []string{" 10.0.0.2 "})
	require.NoError(t, err)
	assert.Equal(t, "SET_IP 10.0.0.2", line)

	_, err = ProtocolLine("SET_ID", "ID", nil)
	assert.EqualError(t, err, "ID required")
	_, err = ProtocolLine("SET_ID", "ID", []string{"1", "2"})
	assert.Error(t, err)
}

func TestCommandsNamed(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range Commands {
		assert.False(t, names[cmd.Name], cmd.Name)
		names[cmd.Name] = true
		assert.NotNil(t, cmd.Func)
	}
	assert.Len(t, names, 11)
}
