package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagListDedupe(t *testing.T) {
	tags := TagList{"farm", "family", "farm", "childhood", "family"}
	assert.Equal(t, TagList{"farm", "family", "childhood"}, tags.Dedupe())
}

func TestTagListDedupeEmpty(t *testing.T) {
	assert.Empty(t, TagList{}.Dedupe())
	assert.Nil(t, TagList(nil).Dedupe())
}

func TestTagListValue(t *testing.T) {
	v, err := TagList{"a", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	v, err = TagList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestTagListScan(t *testing.T) {
	var tags TagList
	require.NoError(t, tags.Scan(`["a","b"]`))
	assert.Equal(t, TagList{"a", "b"}, tags)

	require.NoError(t, tags.Scan([]byte(`["c"]`)))
	assert.Equal(t, TagList{"c"}, tags)

	require.NoError(t, tags.Scan(nil))
	assert.Nil(t, tags)

	assert.Error(t, tags.Scan(42))
}

func TestChatMessageIsUser(t *testing.T) {
	user := ChatMessage{Sender: SenderUser}
	reply := ChatMessage{Sender: SenderAI}
	assert.True(t, user.IsUser())
	assert.False(t, reply.IsUser())
}
