package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageDecoding(t *testing.T) {
	raw := `{
		"id": "1616965872395",
		"createdDateTime": "2021-03-28T21:11:12.395Z",
		"lastModifiedDateTime": "",
		"from": {"user": {"id": "U1", "displayName": "Alice"}, "application": null},
		"body": {"contentType": "html", "content": "<p>hi</p>"}
	}`

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))

	assert.Equal(t, "2021-03-28T21:11:12.395Z", msg.Timestamp())
	require.NotNil(t, msg.User())
	assert.Equal(t, "Alice", msg.User().DisplayName)
	assert.Nil(t, msg.Application())
	assert.True(t, msg.Body.IsHTML())
}

func TestMessageTimestampPrefersLastModified(t *testing.T) {
	msg := Message{CreatedDateTime: "2021-01-01T00:00:00Z", LastModifiedDateTime: "2021-01-02T00:00:00Z"}
	assert.Equal(t, "2021-01-02T00:00:00Z", msg.Timestamp())
}

func TestMessageWithoutSender(t *testing.T) {
	var msg Message
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","from":null,"body":{"contentType":"text","content":"system"}}`), &msg))

	assert.Nil(t, msg.User())
	assert.Nil(t, msg.Application())
	assert.False(t, msg.Body.IsHTML())
}

func TestBodyIsHTMLIgnoresCase(t *testing.T) {
	assert.True(t, Body{ContentType: "HTML"}.IsHTML())
	assert.False(t, Body{ContentType: "text"}.IsHTML())
}
