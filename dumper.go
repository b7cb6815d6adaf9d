package main

import (
	"fmt"
	"io"
	"strconv"
)

// dumpSnapshot writes a human readable rendition of a machine snapshot,
// one tape row per line. Rows holding only zeros are elided unless the
// data pointer sits in them.
func dumpSnapshot(snap *Snapshot, out io.Writer) {
	vmDumper{snap: snap, out: out}.dump()
}

type vmDumper struct {
	snap *Snapshot
	out  io.Writer

	addrWidth int
}

func (dump vmDumper) dump() {
	fmt.Fprintf(dump.out, "# Machine Dump\n")
	if dump.snap.Name != "" {
		fmt.Fprintf(dump.out, "  prog: %v\n", dump.snap.Name)
	}
	fmt.Fprintf(dump.out, "  run: %v\n", dump.snap.RunID)
	fmt.Fprintf(dump.out, "  ip: %v dp: %v steps: %v width: %v\n",
		dump.snap.IP, dump.snap.DP, dump.snap.Steps, dump.snap.Width)
	dump.dumpCells()
}

func (dump *vmDumper) dumpCells() {
	if dump.addrWidth == 0 {
		dump.addrWidth = len(strconv.Itoa(len(dump.snap.Cells))) + 1
	}
	for addr := 0; addr < len(dump.snap.Cells); addr += 8 {
		end := addr + 8
		if end > len(dump.snap.Cells) {
			end = len(dump.snap.Cells)
		}
		if !dump.rowLive(addr, end) {
			continue
		}
		fmt.Fprintf(dump.out, "  @% *v", dump.addrWidth, addr)
		for i := addr; i < end; i++ {
			fmt.Fprintf(dump.out, " %v", dump.snap.Cells[i])
			if i == dump.snap.DP {
				io.WriteString(dump.out, "*")
			}
		}
		io.WriteString(dump.out, "\n")
	}
}

// rowLive reports whether the cell row [addr, end) is worth printing:
// any non-zero cell, or the data pointer parked in it.
func (dump *vmDumper) rowLive(addr, end int) bool {
	if dump.snap.DP >= addr && dump.snap.DP < end {
		return true
	}
	for i := addr; i < end; i++ {
		if dump.snap.Cells[i] != 0 {
			return true
		}
	}
	return false
}
