package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDurationRejectsNegative(t *testing.T) {
	_, err := NewDuration(-1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNegativeDuration)
}

func TestDurationSubRejectsNegativeResult(t *testing.T) {
	a := MustDuration(10)
	b := MustDuration(20)
	_, err := a.Sub(b)
	require.Error(t, err)
}

func TestDurationAddSub(t *testing.T) {
	a := MustDuration(30)
	b := MustDuration(15)
	sum := a.Add(b)
	assert.True(t, sum.Equal(MustDuration(45)))

	diff, err := sum.Sub(b)
	require.NoError(t, err)
	assert.True(t, diff.Equal(a))
}

func TestDurationEqualityTolerance(t *testing.T) {
	a := MustDuration(10)
	b := MustDuration(10 + 1e-10)
	assert.True(t, a.Equal(b))
}

func TestDurationRoundToMinutesHalfToEven(t *testing.T) {
	assert.Equal(t, 2, MustDuration(2.5).RoundToMinutes())
	assert.Equal(t, 4, MustDuration(3.5).RoundToMinutes())
	assert.Equal(t, 10, MustDuration(10).RoundToMinutes())
}

func TestDurationString(t *testing.T) {
	assert.Equal(t, "30.0m", MustDuration(30).String())
	assert.Equal(t, "1.5h", MustDuration(90).String())
	assert.Equal(t, "2.0d", MustDuration(2880).String())
}

func TestDurationMulDivFloat(t *testing.T) {
	d := MustDuration(100)
	doubled, err := d.MulFloat(2)
	require.NoError(t, err)
	assert.True(t, doubled.Equal(MustDuration(200)))

	halved, err := d.DivFloat(2)
	require.NoError(t, err)
	assert.True(t, halved.Equal(MustDuration(50)))

	_, err = d.DivFloat(0)
	assert.Error(t, err)

	_, err = d.MulFloat(-1)
	assert.Error(t, err)
}

func TestMinMaxSum(t *testing.T) {
	a, b, c := MustDuration(10), MustDuration(20), MustDuration(5)
	assert.True(t, Max(a, b).Equal(b))
	assert.True(t, Min(a, b).Equal(a))
	assert.True(t, Sum(a, b, c).Equal(MustDuration(35)))
}
