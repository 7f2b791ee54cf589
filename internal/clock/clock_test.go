package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNow_UsesOverride(t *testing.T) {
	fixed := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := NowFunc
	NowFunc = func() time.Time { return fixed }
	defer func() { NowFunc = orig }()

	require.Equal(t, fixed, Now())
}

func TestSince_IsMonotonicWithOverride(t *testing.T) {
	t0 := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := NowFunc
	NowFunc = func() time.Time { return t0.Add(250 * time.Millisecond) }
	defer func() { NowFunc = orig }()

	assert.Equal(t, 250*time.Millisecond, Since(t0))
}

func TestSystemSource_DelegatesToNowFunc(t *testing.T) {
	fixed := time.Date(2031, 5, 5, 0, 0, 0, 0, time.UTC)
	orig := NowFunc
	NowFunc = func() time.Time { return fixed }
	defer func() { NowFunc = orig }()

	assert.Equal(t, fixed, System.Now())
}
