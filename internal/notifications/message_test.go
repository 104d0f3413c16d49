package notifications

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderInactivityEmail(t *testing.T) {
	msg, err := RenderInactivityEmail(Email{To: "c@example.com", ContactName: "Grace", UserName: "Ada"})
	require.NoError(t, err)

	assert.Equal(t, "⚠️ Urgent: Ada has not checked in for over 48 hours", msg.Subject)
	assert.Contains(t, msg.HTML, "Dear Grace")
	assert.Contains(t, msg.HTML, "<strong>Ada</strong>")
	assert.Contains(t, msg.HTML, "more than 48 hours")
	assert.Contains(t, msg.Text, "Ada, who has not checked in for more than 48 hours")
}

func TestRenderInactivityEmailEscapesHTML(t *testing.T) {
	msg, err := RenderInactivityEmail(Email{ContactName: "<b>x</b>", UserName: "<script>"})
	require.NoError(t, err)

	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
	assert.Contains(t, msg.Text, "<script>")
}
