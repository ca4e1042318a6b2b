package console

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExitsOnCommand(t *testing.T) {
	in := strings.NewReader("exit\n")
	var out strings.Builder
	c := New(nil, nil, nil, "links.txt", "MeetingTranscripts", in, &out)

	err := c.Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Welcome to Lumina!")
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestRunExitsWhenInputCloses(t *testing.T) {
	in := strings.NewReader("")
	var out strings.Builder
	c := New(nil, nil, nil, "links.txt", "MeetingTranscripts", in, &out)

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestRunShowsShortcuts(t *testing.T) {
	in := strings.NewReader("help\nquit\n")
	var out strings.Builder
	c := New(nil, nil, nil, "links.txt", "MeetingTranscripts", in, &out)

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Shortcuts:")
}

func TestRunSkipsBlankLines(t *testing.T) {
	in := strings.NewReader("\n   \nexit\n")
	var out strings.Builder
	c := New(nil, nil, nil, "links.txt", "MeetingTranscripts", in, &out)

	require.NoError(t, c.Run(context.Background()))
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(nil, nil, nil, "links.txt", "MeetingTranscripts", strings.NewReader("exit\n"), &strings.Builder{})
	assert.Error(t, c.Run(ctx))
}

func TestRunReportsTranscriptErrors(t *testing.T) {
	// The transcripts folder does not exist, so the command fails with an
	// ordinary error that is reported without ending the session.
	dir := filepath.Join(t.TempDir(), "missing")
	in := strings.NewReader("upload meeting transcript\nexit\n")
	var out strings.Builder
	c := New(nil, nil, nil, "links.txt", dir, in, &out)

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "Error processing meeting transcripts:")
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestRunRecoversFromHandlerPanic(t *testing.T) {
	// A readable transcript reaches the nil ingestor's fields and panics
	// inside handle; the loop must report it and keep going.
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "standup.txt"),
		[]byte("we discussed the rollout schedule"), 0o644))

	in := strings.NewReader("upload meeting transcript\nexit\n")
	var out strings.Builder
	c := New(nil, nil, nil, "links.txt", dir, in, &out)

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "An error occurred while processing your message")
	assert.Contains(t, out.String(), "Goodbye!")
}
