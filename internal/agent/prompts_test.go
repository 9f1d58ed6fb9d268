package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPrompt(t *testing.T) {
	out := formatPrompt("Hello {name}, welcome to {band_name}.", map[string]string{
		"name":      "Sarah",
		"band_name": "Sick Day with Ferris",
	})
	assert.Equal(t, "Hello Sarah, welcome to Sick Day with Ferris.", out)
}

func TestFormatPromptMarksMissingKeys(t *testing.T) {
	out := formatPrompt("Hello {name}.", nil)
	assert.Equal(t, "Hello {MISSING:name}.", out)
}

func TestStatePromptHelpers(t *testing.T) {
	st := State{}
	assert.Empty(t, st.lastInboundText())
	assert.Empty(t, st.historyWindow(5))

	st = st.appendTurn(ChatRoleUser, "first")
	st = st.appendTurn(ChatRoleAssistant, "reply")
	st = st.appendTurn(ChatRoleUser, "second")

	assert.Equal(t, "second", st.lastInboundText())
	assert.Equal(t, "first\nsecond", st.inboundText())
	assert.Equal(t, "User: first\nAgent: reply\nUser: second", st.historyWindow(0))
	assert.Equal(t, "Agent: reply\nUser: second", st.historyWindow(2))

	msgs := st.chatMessages()
	assert.Len(t, msgs, 3)
	assert.Equal(t, ChatRoleAssistant, msgs[1].Role)
}

func TestAppendTurnDoesNotMutateReceiver(t *testing.T) {
	base := State{}
	base = base.appendTurn(ChatRoleUser, "one")

	a := base.appendTurn(ChatRoleAssistant, "branch a")
	b := base.appendTurn(ChatRoleAssistant, "branch b")

	assert.Len(t, base.Turns, 1)
	assert.Equal(t, "branch a", a.Turns[1].Content)
	assert.Equal(t, "branch b", b.Turns[1].Content)
}
