package parsers

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/bloomd/internal/bloomd/common/log"
)

func TestReadList(t *testing.T) {
	input := "\uFEFFwww.a.com\r\n\n  www.b.com  \nwww.a.com\nhttp://c.com/#frag\n\t\n"

	got, err := ReadList(strings.NewReader(input), "test", log.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"www.a.com", "www.b.com", "http://c.com/#frag"}, got)
}

func TestReadList_Empty(t *testing.T) {
	got, err := ReadList(strings.NewReader(""), "empty", log.NewNoopLogger())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadList_LineTooLong(t *testing.T) {
	long := strings.Repeat("x", MaxLineBytes+1)
	_, err := ReadList(strings.NewReader(long+"\n"), "long", log.NewNoopLogger())
	assert.Error(t, err)
}

func TestWriteList_RoundTrip(t *testing.T) {
	urls := []string{"a.com", "b.com", "c.com/path?q=1"}

	var buf bytes.Buffer
	require.NoError(t, WriteList(&buf, urls))
	assert.Equal(t, "a.com\nb.com\nc.com/path?q=1\n", buf.String())

	back, err := ReadList(&buf, "buf", log.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, urls, back)
}

func TestWriteList_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteList(&buf, nil))
	assert.Zero(t, buf.Len())
}
