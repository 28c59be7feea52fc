package report

import (
	"bytes"
	"testing"

	"github.com/emptyOVO/brckit-go/agg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatExample(t *testing.T) {
	r := agg.Result{}
	r.Observe([]byte("Paris"), 123)
	r.Observe([]byte("Paris"), 95)
	r.Observe([]byte("Oslo"), -20)
	assert.Equal(t, "{Oslo=-2.0/-2.0/-2.0, Paris=9.5/10.9/12.3}\n", Format(r))
}

func TestFormatEmpty(t *testing.T) {
	assert.Equal(t, "{}\n", Format(agg.Result{}))
}

func TestFormatSortsByBytes(t *testing.T) {
	r := agg.Result{
		"b":     {Min: 1, Max: 1, Sum: 1, Count: 1},
		"B":     {Min: 2, Max: 2, Sum: 2, Count: 1},
		"Ärhus": {Min: 3, Max: 3, Sum: 3, Count: 1},
		"a":     {Min: 4, Max: 4, Sum: 4, Count: 1},
	}
	assert.Equal(t, "{B=0.2/0.2/0.2, a=0.4/0.4/0.4, b=0.1/0.1/0.1, Ärhus=0.3/0.3/0.3}\n", Format(r))
}

func TestFormatNegativeTieRounding(t *testing.T) {
	r := agg.Result{}
	r.Observe([]byte("X"), -10)
	r.Observe([]byte("X"), -11)
	assert.Equal(t, "{X=-1.1/-1.0/-1.0}\n", Format(r))

	r = agg.Result{}
	for _, v := range []int64{-11, -10, -10} {
		r.Observe([]byte("Y"), v)
	}
	assert.Equal(t, "{Y=-1.1/-1.0/-1.0}\n", Format(r))
}

func TestRows(t *testing.T) {
	r := agg.Result{
		"Oslo":  {Min: -20, Max: -20, Sum: -20, Count: 1},
		"Paris": {Min: 95, Max: 123, Sum: 218, Count: 2},
	}
	assert.Equal(t, []Row{
		{Station: "Oslo", Min: -20, Mean: -20, Max: -20, Count: 1},
		{Station: "Paris", Min: 95, Mean: 109, Max: 123, Count: 2},
	}, Rows(r))
}

func TestWriteMatchesFormat(t *testing.T) {
	r := agg.Result{
		"Oslo":  {Min: -20, Max: -20, Sum: -20, Count: 1},
		"Paris": {Min: 95, Max: 123, Sum: 218, Count: 2},
		"Lagos": {Min: 301, Max: 301, Sum: 301, Count: 1},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r))
	assert.Equal(t, Format(r), buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, agg.Result{}))
	assert.Equal(t, "{}\n", buf.String())
}
