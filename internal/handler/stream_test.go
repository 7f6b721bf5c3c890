package handler

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-gradebook/internal/service"
)

func TestWriteGradebookEvent(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, writeGradebookEvent(w, service.GradebookEvent{Type: service.EventMarkRecorded, CourseID: 3, AnswerID: 8}))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "event: gradebook\ndata: {"))
	require.Contains(t, out, `"type":"mark.recorded"`)
	require.Contains(t, out, `"course_id":3`)
	require.True(t, strings.HasSuffix(out, "\n\n"))
}

func TestWriteKeepAlive(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, writeKeepAlive(w))
	require.True(t, strings.HasPrefix(buf.String(), ": keep-alive "))
}
