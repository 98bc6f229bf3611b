package notify

import (
	"strings"
	"testing"

	goslack "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSystemErrorMessageIncludesComponentAndSeverity(t *testing.T) {
	blocks := BuildSystemErrorMessage("ai.pipeline", "stream failed", "fatal")
	require.Len(t, blocks, 2)
	header, ok := blocks[0].(*goslack.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, header.Text.Text, "ai.pipeline")
	assert.Contains(t, header.Text.Text, "fatal")
}

func TestBuildBackpressureMessageIncludesRoomAndCount(t *testing.T) {
	blocks := BuildBackpressureMessage("session:abc", 3)
	require.Len(t, blocks, 1)
	section, ok := blocks[0].(*goslack.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, section.Text.Text, "session:abc")
	assert.Contains(t, section.Text.Text, "dropped 3")
}

func TestTruncateForSlackLeavesShortTextUntouched(t *testing.T) {
	assert.Equal(t, "short", truncateForSlack("short"))
}

func TestTruncateForSlackTruncatesLongText(t *testing.T) {
	long := strings.Repeat("a", maxBlockTextLength+500)
	out := truncateForSlack(long)
	assert.Less(t, len(out), len(long))
	assert.Contains(t, out, "truncated")
}
