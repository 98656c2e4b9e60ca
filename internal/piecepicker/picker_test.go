package piecepicker

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Four candidate pieces scored [2,1,1,2] (by how many of the two "other"
// peers hold each), requesting 2 picks the rarest pair: indices 1 and 2.
func TestSelectRarestFirst(t *testing.T) {
	local := []byte{0, 0, 0, 0}
	target := []byte{1, 1, 1, 1}
	other1 := []byte{1, 1, 0, 1}
	other2 := []byte{1, 0, 1, 1}

	got := Select("file-rarest", local, target, [][]byte{other1, other2}, 2)
	sort.Ints(got)
	assert.Equal(t, []int{1, 2}, got)
}

func TestSelectSkipsAlreadyHeldPieces(t *testing.T) {
	local := []byte{1, 0, 0}
	target := []byte{1, 1, 1}

	got := Select("file-held", local, target, nil, 10)
	sort.Ints(got)
	assert.Equal(t, []int{1, 2}, got)
}

// An index the target lacks scores 0, same as an index no other peer
// shares with the target, so it is still a candidate: |result| ==
// min(N, remaining) regardless of target availability.
func TestSelectIncludesPiecesTargetLacksAtZeroScore(t *testing.T) {
	local := []byte{0, 0, 0}
	target := []byte{1, 0, 1}

	got := Select("file-lacks", local, target, nil, 10)
	sort.Ints(got)
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestSelectCapsAtRequestedCount(t *testing.T) {
	local := []byte{0, 0, 0, 0}
	target := []byte{1, 1, 1, 1}

	got := Select("file-cap", local, target, nil, 2)
	assert.Len(t, got, 2)
}

func TestSelectResultSizeIsMinRequestedAndRemaining(t *testing.T) {
	local := []byte{0, 0, 0, 1, 1}
	target := []byte{1, 1, 1, 1, 1}

	got := Select("file-bound", local, target, nil, 10)
	assert.Len(t, got, 3, "remaining zeros in local_map is 3, below the requested 10")

	Unreserve("file-bound", got)
	got = Select("file-bound", local, target, nil, 2)
	assert.Len(t, got, 2, "requested count is below remaining, so it governs")
}

func TestSelectDoesNotDoubleReserveAcrossCalls(t *testing.T) {
	local := []byte{1, 0}
	target := []byte{1, 1}

	first := Select("file-reserve", local, target, nil, 1)
	assert.Len(t, first, 1)

	second := Select("file-reserve", local, target, nil, 1)
	assert.Empty(t, second, "the single available index is already reserved by the first call")

	Unreserve("file-reserve", first)
	third := Select("file-reserve", local, target, nil, 1)
	assert.Len(t, third, 1, "unreserving frees the index for a later selection")
}
