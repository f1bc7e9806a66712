package rtsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSeq(t *testing.T) {
	c, err := ParseCSeq([]string{"42"})
	require.NoError(t, err)
	assert.Equal(t, CSeq(42), c)

	_, err = ParseCSeq(nil)
	assert.Error(t, err)

	_, err = ParseCSeq([]string{"1", "2"})
	assert.Error(t, err)

	_, err = ParseCSeq([]string{"not-a-number"})
	assert.Error(t, err)
}

func TestCSeqNextWraps(t *testing.T) {
	var c CSeq = 0xFFFFFFFF
	assert.Equal(t, CSeq(0), c.Next())
}

func TestCSeqDistance(t *testing.T) {
	assert.Equal(t, uint32(3), CSeq(13).Distance(CSeq(10)))
	// a CSeq behind the expected value wraps around to a huge distance,
	// which is what lets the orderer treat stale/duplicate CSeqs as shed
	// candidates rather than silently buffering them forever.
	assert.Equal(t, uint32(0xFFFFFFFF), CSeq(9).Distance(CSeq(10)))
}
