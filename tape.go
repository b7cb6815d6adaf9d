package main

// Tape storage is paged: cells live in fixed-size chunks appended as the
// data pointer first crosses each page boundary. Growing never moves
// settled cells, so a snapshot taken mid-fault reads stable storage, and
// the grow cost of a `>` into fresh territory is one page append at worst.
//
// Unlike a sparse address space, tape addresses are dense from zero, so a
// page is found by shifting the cell index; there is nothing to search.

const (
	tapePageBits = 8
	tapePageSize = 1 << tapePageBits
	tapePageMask = tapePageSize - 1
)

type tape struct {
	pages [][]int
	size  int // cells the program has reached, not storage capacity
	limit int // maximum cells, 0 for unlimited
}

// grow extends the tape to hold at least size cells, reporting false when
// that would cross the configured limit.
func (t *tape) grow(size int) bool {
	if t.limit != 0 && size > t.limit {
		return false
	}
	for size > len(t.pages)*tapePageSize {
		t.pages = append(t.pages, make([]int, tapePageSize))
	}
	if size > t.size {
		t.size = size
	}
	return true
}

// at returns the cell at index i, which must be below size.
func (t *tape) at(i int) *int {
	return &t.pages[i>>tapePageBits][i&tapePageMask]
}

// reset drops all cells, keeping the limit.
func (t *tape) reset() {
	t.pages, t.size = nil, 0
}

// snapshotCells copies the reached cells out of page storage.
func (t *tape) snapshotCells() []uint32 {
	cells := make([]uint32, t.size)
	for i := range cells {
		cells[i] = uint32(*t.at(i))
	}
	return cells
}
