package osc

import (
	"testing"
	"time"

	goosc "github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	testCases := []struct {
		name   string
		id     uint8
		value  int32
		expect []byte
	}{
		{
			"device trigger",
			1, 1,
			[]byte{'/', 'd', 'e', 'v', 'i', 'c', 'e', '1', '/', 0, 0, 0, ',', 'i', 0, 0, 0, 0, 0, 1},
		},
		{
			"device reset",
			255, 0,
			[]byte{'/', 'd', 'e', 'v', 'i', 'c', 'e', '2', '5', '5', '/', 0, ',', 'i', 0, 0, 0, 0, 0, 0},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Encode(tc.id, tc.value)
			require.NoError(t, err)
			require.Equal(t, tc.expect, b)

			msg, err := Parse(b)
			require.NoError(t, err)
			assert.Equal(t, DeviceAddress(tc.id), msg.Address)
			v, ok := Value(msg)
			require.True(t, ok)
			assert.Equal(t, tc.value, v)
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("xyz"))
	require.Error(t, err)

	bundle := goosc.NewBundle(time.Now())
	require.NoError(t, bundle.Append(EventMessage(1, 1)))
	b, err := bundle.MarshalBinary()
	require.NoError(t, err)
	_, err = Parse(b)
	require.ErrorIs(t, err, ErrNotMessage)
}

func TestValue(t *testing.T) {
	_, ok := Value(goosc.NewMessage("/device1/"))
	assert.False(t, ok)
	_, ok = Value(goosc.NewMessage("/device1/", "1"))
	assert.False(t, ok)
	v, ok := Value(EventMessage(3, 1))
	assert.True(t, ok)
	assert.Equal(t, int32(1), v)
	assert.Equal(t, "/device3/", EventMessage(3, 1).Address)
}
