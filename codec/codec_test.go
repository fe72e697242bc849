package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestRoundtrip(t *testing.T) {
	type payload struct {
		Line int       `json:"line"`
		Data []float64 `json:"data"`
	}
	in := payload{Line: 3, Data: []float64{1, 2.5, -3}}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		b, err := c.Marshal(in)
		require.NoError(t, err)

		var out payload
		require.NoError(t, c.Unmarshal(b, &out))
		assert.Equal(t, in, out, c.Name())
	}
}
