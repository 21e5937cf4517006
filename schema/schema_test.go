package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lcschema "github.com/tmc/langchaingo/schema"
)

func TestNodeKindJSON(t *testing.T) {
	n := NewChildRef("0", "idx-1", "summary1")
	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"child_ref"`)

	var back Node
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.IsChildRef())
	assert.Equal(t, "idx-1", back.ChildIndexID)
	assert.Equal(t, "summary1", back.Text)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"proxy"}`), &back))
}

func TestNewDocuments(t *testing.T) {
	docs := NewDocuments("Hello world.", "This is a test.")
	require.Len(t, docs, 2)
	assert.NotEqual(t, docs[0].ID, docs[1].ID)
	assert.Equal(t, "This is a test.", docs[1].Text)
}

func TestFromLangChain(t *testing.T) {
	docs := FromLangChain([]lcschema.Document{
		{PageContent: "a", Metadata: map[string]any{"source": "a.txt"}},
		{PageContent: "b"},
	})
	require.Len(t, docs, 2)
	assert.Equal(t, "a.txt", docs[0].Metadata["source"])
	assert.Nil(t, docs[1].Metadata)
}

func TestResponseString(t *testing.T) {
	var r *Response
	assert.Equal(t, "", r.String())
	assert.True(t, r.IsEmpty())

	r = &Response{Text: "What is?:Hello world."}
	assert.Equal(t, "What is?:Hello world.", r.String())
	assert.False(t, r.IsEmpty())
}
