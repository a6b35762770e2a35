package main

import (
	"testing"

	"github.com/matryer/is"
)

func TestSplitArgs(t *testing.T) {
	is := is.New(t)

	flags, cmd := splitArgs([]string{"--debug", "--max-depth=8", "best", "-time", "500"})
	is.Equal(flags, []string{"--debug", "--max-depth=8"})
	is.Equal(cmd, []string{"best", "-time", "500"})

	flags, cmd = splitArgs([]string{"--rows=5", "--", "--odd"})
	is.Equal(flags, []string{"--rows=5"})
	is.Equal(cmd, []string{"--odd"})

	flags, cmd = splitArgs(nil)
	is.Equal(len(flags), 0)
	is.Equal(len(cmd), 0)
}
