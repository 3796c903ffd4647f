package cli

import (
	"strings"
	"testing"

	"github.com/c-bata/go-prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch(t *testing.T) {
	t.Parallel()

	var got []string
	err := Batch(strings.NewReader("PLANE_BANK_DEGREES\n\n  # comment\n  VERTICAL_SPEED  \r\nlast"), func(line string) {
		got = append(got, line)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"PLANE_BANK_DEGREES", "VERTICAL_SPEED", "last"}, got)
}

func TestPrefixCompleter(t *testing.T) {
	t.Parallel()

	c := PrefixCompleter(func() []string { return []string{"PLANE_PITCH_DEGREES", "PLANE_BANK_DEGREES", "MAGVAR"} })
	buf := prompt.NewBuffer()
	buf.InsertText("pla", false, true)
	ss := c(*buf.Document())
	texts := make([]string, len(ss))
	for i, s := range ss {
		texts[i] = s.Text
	}
	assert.Equal(t, []string{"PLANE_PITCH_DEGREES", "PLANE_BANK_DEGREES"}, texts)

	assert.Nil(t, c(prompt.Document{}))
}
