package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_tape_grow(t *testing.T) {
	var tp tape

	assert.True(t, tp.grow(1))
	assert.Equal(t, 1, tp.size)
	assert.Len(t, tp.pages, 1)

	// growth is monotonic; asking for less never shrinks
	assert.True(t, tp.grow(1))
	assert.Equal(t, 1, tp.size)

	// filling the first page allocates nothing new
	assert.True(t, tp.grow(tapePageSize))
	assert.Equal(t, tapePageSize, tp.size)
	assert.Len(t, tp.pages, 1)

	// one past the page boundary appends a second page
	assert.True(t, tp.grow(tapePageSize+1))
	assert.Equal(t, tapePageSize+1, tp.size)
	assert.Len(t, tp.pages, 2)

	// a large jump appends however many pages it takes
	assert.True(t, tp.grow(3*tapePageSize+7))
	assert.Len(t, tp.pages, 4)
}

func Test_tape_limit(t *testing.T) {
	tp := tape{limit: 300}

	assert.True(t, tp.grow(300))
	assert.False(t, tp.grow(301))

	// a refused grow changes nothing
	assert.Equal(t, 300, tp.size)
	assert.Len(t, tp.pages, 2)
}

func Test_tape_cells(t *testing.T) {
	var tp tape
	tp.grow(tapePageSize + 2)

	*tp.at(0) = 42
	*tp.at(tapePageMask) = 99 // last cell of the first page
	*tp.at(tapePageSize) = 7  // first cell of the second
	*tp.at(tapePageSize+1) = 5

	assert.Equal(t, 42, *tp.at(0))
	assert.Equal(t, 99, *tp.at(tapePageMask))
	assert.Equal(t, 7, *tp.at(tapePageSize))

	cells := tp.snapshotCells()
	assert.Len(t, cells, tapePageSize+2)
	assert.Equal(t, uint32(42), cells[0])
	assert.Equal(t, uint32(99), cells[tapePageMask])
	assert.Equal(t, uint32(7), cells[tapePageSize])
	assert.Equal(t, uint32(5), cells[tapePageSize+1])
}

func Test_tape_reset(t *testing.T) {
	tp := tape{limit: 1000}
	tp.grow(500)
	*tp.at(123) = 1

	tp.reset()
	assert.Equal(t, 0, tp.size)
	assert.Nil(t, tp.pages)
	assert.Equal(t, 1000, tp.limit, "reset keeps the limit")

	// cells reached after a reset start over at zero
	tp.grow(200)
	assert.Equal(t, 0, *tp.at(123))
}
