/* Package main: gobf -- a small tape machine that shows its work

Brainfuck is about the smallest language anyone still bothers to run:
eight one-byte instructions driving a data pointer along a tape of
cells, with every other byte a comment. That smallness is the appeal.
The whole semantics fits in your head, while the engineering concerns
around an interpreter -- jump resolution, coalescing, resource limits,
fault reporting -- stay exactly as real as they are in a big machine.

gobf runs the output-only dialect; the , input instruction is not part
of this machine.

A program is resolved before it ever runs (resolve.go): one left to
right scan pairs every [ with its ] and fails on anything unbalanced,
reporting the offset of the offending bracket. Execution therefore never
re-scans for a partner; every jump is a table lookup.

The machine itself (machine.go) runs in one of two forms. At level 0 the
source bytes are the instruction stream, decoded one at a time, each
byte costing one step. At levels 1 and 2 a compiled stream runs instead
(compile.go): runs of like bytes collapse into counted operations, and
level 2 further rewrites three classic loop shapes -- [-] clear, [<] and
[>] scans, and [->+<] style data moves -- into single operations.

The interesting part of compiling is not the speedup but the obligation
that comes with it. A fault must land on the exact source byte that
would have faulted raw: same offset, same step count, same tape. So
every compiled operation remembers where it came from, and whenever a
fault could land inside one -- a strict overflow mid run, a step budget
expiring, the pointer hitting an edge -- it replays its primitive steps
one byte at a time. The corpus checker (corpus.go) and the tests hold
the two engines to that.

Cells wrap at a configured width, 8 bits unless asked otherwise, or
fault if strict arithmetic is on. The tape starts as a single zero cell
and grows one cell at a time to the right, up to an optional limit. The
left edge either faults or, if clamping is on, absorbs the move. A step
budget turns runaway programs into a distinct "step budget exhausted"
fault instead of a hang.

A failing run produces a MachineError carrying the source offset, the
data pointer, the step count, and a full Snapshot of the tape; snapshots
also serialize to disk (snapshot.go) with a small magic-and-version
header over a canonical CBOR body, and can be pretty printed later.

The command line (main.go) runs a program file or a -e expression,
configured by flags over an optional gobf.toml (config.go), traces with
-trace, bounds runs with -timeout and -steps, writes snapshots with
-snapshot, prints them with -dump, and checks a yaml corpus of programs
against every engine level with -check.

*/
package main
