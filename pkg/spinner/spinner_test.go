package spinner

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpinnerUpdateAndDone(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := New(&buf)

	s.Done()
	assert.Empty(t, buf.String(), "done before update writes nothing")

	s.Update("1/4 points")
	s.Update("2/4 points")
	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\033[?25l"))
	assert.Contains(t, out, "\r"+frames[0]+" 1/4 points")
	assert.Contains(t, out, "\r"+frames[1]+" 2/4 points")

	s.Done()
	assert.True(t, strings.HasSuffix(buf.String(), "\033[?25h"))
}

func TestSpinnerWraps(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := New(&buf)
	for range len(frames) + 1 {
		s.Update("x")
	}
	assert.Equal(t, 1, s.index)
}
