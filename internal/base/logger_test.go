package base

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInMemLogger(t *testing.T) {
	var l InMemLogger
	l.Infof("opened %d objects", 3)
	l.Errorf("bad xref at %d\n", 10)
	require.Equal(t, "opened 3 objects\nERROR: bad xref at 10\n", l.String())
	l.Reset()
	require.Empty(t, l.String())
}
