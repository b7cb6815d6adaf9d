package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Snapshot captures machine state at a moment: the run it belongs to,
// where both pointers were, how many steps had retired, and every tape
// cell reached so far.
type Snapshot struct {
	RunID uuid.UUID `cbor:"run_id"`
	Name  string    `cbor:"name,omitempty"`
	Width uint      `cbor:"width"`
	IP    int       `cbor:"ip"`
	DP    int       `cbor:"dp"`
	Steps uint64    `cbor:"steps"`
	Cells []uint32  `cbor:"cells"`
}

// snapMagic identifies a snapshot file.
var snapMagic = [4]byte{'g', 'b', 'f', 's'}

// Snapshot format version
// v1: initial format
const snapVersion uint32 = 1

var snapEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	snapEncMode = em
}

func (vm *VM) snapshot(at int) *Snapshot {
	return &Snapshot{
		RunID: vm.runID,
		Name:  vm.name,
		Width: vm.width,
		IP:    at,
		DP:    vm.dp,
		Steps: vm.steps,
		Cells: vm.tape.snapshotCells(),
	}
}

// Snapshot captures the current machine state, pinned to the source
// offset the machine would execute next.
func (vm *VM) Snapshot() *Snapshot {
	return vm.snapshot(vm.srcAt())
}

// writeSnapshot serializes a snapshot: a four byte magic, a big endian
// format version, then a canonical CBOR body.
func writeSnapshot(snap *Snapshot, w io.Writer) error {
	body, err := snapEncMode.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	var hdr [8]byte
	copy(hdr[:4], snapMagic[:])
	binary.BigEndian.PutUint32(hdr[4:], snapVersion)
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("snapshot: write body: %w", err)
	}
	return nil
}

func readSnapshot(r io.Reader) (*Snapshot, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("snapshot: read header: %w", err)
	}
	if !bytes.Equal(hdr[:4], snapMagic[:]) {
		return nil, fmt.Errorf("snapshot: bad magic %q", hdr[:4])
	}
	if v := binary.BigEndian.Uint32(hdr[4:]); v != snapVersion {
		return nil, fmt.Errorf("snapshot: unsupported version %v", v)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read body: %w", err)
	}
	var snap Snapshot
	if err := cbor.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return &snap, nil
}
