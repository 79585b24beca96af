package pyclaw

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentText(t *testing.T) {
	c := Content{Role: RoleModel, Parts: []Part{
		{Text: "hidden reasoning", Thought: true},
		TextPart("hello "),
		CallPart("read_file", "1", nil),
		TextPart("world"),
	}}

	assert.Equal(t, "hello world", c.Text())
	calls := c.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "read_file", calls[0].Name)
	assert.NotNil(t, calls[0].Args)
}

func TestPartJSONKeys(t *testing.T) {
	data, err := json.Marshal([]Part{
		CallPart("grep", "c1", map[string]any{"pattern": "x"}),
		ErrorPart("grep", "c1", "boom"),
		ImagePart([]byte("png"), "image/png"),
	})
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"functionCall":{"name":"grep","args":{"pattern":"x"},"id":"c1"}`)
	assert.Contains(t, s, `"functionResponse":{"name":"grep","id":"c1","response":{"error":"boom"}}`)
	assert.Contains(t, s, `"inlineData":{"mimeType":"image/png","data":"cG5n"}`)
}

func TestBlobBytes(t *testing.T) {
	p := ImagePart([]byte{0x89, 'P', 'N', 'G'}, "image/png")
	raw, err := p.InlineData.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw)
}

func TestResultPart(t *testing.T) {
	p := ResultPart("ls", "id", "ok")
	require.NotNil(t, p.FunctionResponse)
	assert.Equal(t, map[string]any{"result": "ok"}, p.FunctionResponse.Response)
}
