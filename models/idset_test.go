package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDSetToggle(t *testing.T) {
	var s IDSet
	s, on := s.Toggle("a")
	assert.True(t, on)
	assert.Equal(t, IDSet{"a"}, s)

	s, on = s.Toggle("b")
	assert.True(t, on)
	s, on = s.Toggle("a")
	assert.False(t, on)
	assert.Equal(t, IDSet{"b"}, s)

	s, _ = s.Toggle("a")
	assert.Equal(t, IDSet{"b", "a"}, s)
}

func TestIDSetAddIsIdempotent(t *testing.T) {
	s := IDSet{"x"}.Add("x").Add("x")
	assert.Len(t, s, 1)
	assert.True(t, s.Contains("x"))
	assert.False(t, s.Contains("y"))
}

func TestIDSetRemoveDropsDuplicates(t *testing.T) {
	s := IDSet{"a", "b", "a"}.Remove("a")
	assert.Equal(t, IDSet{"b"}, s)
}

func TestIDSetJSON(t *testing.T) {
	var s IDSet
	b, err := json.Marshal(s)
	assert.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	b, err = json.Marshal(IDSet{"u1", "u2"})
	assert.NoError(t, err)
	assert.Equal(t, `["u1","u2"]`, string(b))

	var back IDSet
	assert.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, IDSet{"u1", "u2"}, back)
}

func TestIDSetSliceIsCopy(t *testing.T) {
	s := IDSet{"a"}
	out := s.Slice()
	out[0] = "z"
	assert.Equal(t, "a", s[0])
	assert.NotNil(t, IDSet(nil).Slice())
}
