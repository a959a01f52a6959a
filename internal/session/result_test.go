package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_modelResultJSON(t *testing.T) {
	tests := []struct {
		res  ModelResult
		want string
	}{
		{ModelResult{Status: ModelRunning}, `"Running"`},
		{ModelResult{Status: ModelDone}, `"Done"`},
		{ModelResult{Status: ModelFound, Payload: []byte("a\n")}, `{"Model":[97,10]}`},
	}
	for _, tt := range tests {
		b, err := json.Marshal(tt.res)
		require.Nil(t, err)
		assert.Equal(t, tt.want, string(b))

		var back ModelResult
		require.Nil(t, json.Unmarshal(b, &back))
		assert.Equal(t, tt.res, back)
	}

	var res ModelResult
	assert.NotNil(t, json.Unmarshal([]byte(`"Paused"`), &res))
	assert.NotNil(t, json.Unmarshal([]byte(`{"Model":[300]}`), &res))
}

func Test_treeJSON(t *testing.T) {
	tree := Map(
		Entry[float64]{Name: "z", Tree: Leaf(1.5)},
		Entry[float64]{Name: "a", Tree: Array(Leaf(1.0), Tree[float64]{})},
	)
	b, err := json.Marshal(tree)
	require.Nil(t, err)
	assert.Equal(t, `{"z":1.5,"a":[1,null]}`, string(b))
}

func Test_parseConfiguration(t *testing.T) {
	tree, err := ParseConfiguration([]byte(`{"solve": {"models": "3", "enum_mode": "bt"}, "solver": [{"seed": "1"}]}`))
	require.Nil(t, err)
	b, err := json.Marshal(tree)
	require.Nil(t, err)
	assert.Equal(t, `{"solve":{"models":"3","enum_mode":"bt"},"solver":[{"seed":"1"}]}`, string(b))

	for _, src := range []string{`{"solve": {"models": 3}}`, `{"a": "1"`, `"x" "y"`, `null`} {
		_, err := ParseConfiguration([]byte(src))
		assertKind(t, TransportError, err)
		assert.Equal(t, "Could not parse configuration data", err.Error())
	}
}
