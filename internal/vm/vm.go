package vm

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/funvibe/monitor/internal/ast"
	"github.com/funvibe/monitor/internal/symbols"
	"github.com/funvibe/monitor/internal/typesystem"
)

// FrameHeaderSize is the storage reserved in front of each frame's locals.
const FrameHeaderSize = 32

// Default storage sizes.
const (
	DefaultStackSize   = 1 << 20
	DefaultHeapSize    = 4 << 20
	DefaultHandles     = 1 << 16
	DefaultScratchSize = 64 << 10
)

// Frame is one activation record. The sentinel frame has address and
// number 0 and no table.
type Frame struct {
	Addr        int
	Number      int
	DynamicLink int
	StaticLink  int
	Proc        bool
	Table       *symbols.Table
	Node        *ast.Node
	Size        int
}

// Level is the lexical level of the frame.
func (f *Frame) Level() int {
	if f.Table == nil {
		return 0
	}
	return f.Table.Level
}

// Options configures storage sizes.
type Options struct {
	StackSize   int
	HeapSize    int
	Handles     int
	ScratchSize int
}

// VM holds the state of one running program.
type VM struct {
	Modes   *typesystem.Graph
	Program *ast.Program
	Std     *StdEnv
	Output  io.Writer

	opts Options

	stack   []byte
	top     int
	fp      int
	frames  map[int]*Frame
	frameNo int

	heap *Heap

	scratch    []byte
	scratchTop int

	actions   map[int]Action
	debugger  Debugger
	current   *ast.Node
	interrupt atomic.Bool
}

func New(modes *typesystem.Graph, program *ast.Program, opts Options) *VM {
	if opts.StackSize <= 0 {
		opts.StackSize = DefaultStackSize
	}
	if opts.HeapSize <= 0 {
		opts.HeapSize = DefaultHeapSize
	}
	if opts.Handles <= 0 {
		opts.Handles = DefaultHandles
	}
	if opts.ScratchSize <= 0 {
		opts.ScratchSize = DefaultScratchSize
	}
	m := &VM{
		Modes:   modes,
		Program: program,
		Std:     NewStdEnv(modes),
		Output:  os.Stdout,
		opts:    opts,
		actions: make(map[int]Action),
	}
	m.Reset()
	return m
}

// Reset discards all frames, heap blocks and transient values, leaving
// only the sentinel frame.
func (m *VM) Reset() {
	m.stack = make([]byte, m.opts.StackSize)
	m.frames = map[int]*Frame{0: {Size: FrameHeaderSize}}
	m.fp = 0
	m.top = FrameHeaderSize
	m.frameNo = 0
	m.heap = NewHeap(m.opts.HeapSize, m.opts.Handles)
	m.scratch = make([]byte, m.opts.ScratchSize)
	m.scratchTop = 0
	m.current = nil
}

func (m *VM) Heap() *Heap { return m.heap }

// OpenFrame pushes an activation record for table. Locals start out
// uninitialised.
func (m *VM) OpenFrame(table *symbols.Table, node *ast.Node, proc bool, static int) (*Frame, error) {
	size := FrameHeaderSize
	if table != nil {
		size += table.Size()
	}
	if m.top+size > len(m.stack) {
		return nil, Fatalf("stack overflow")
	}
	m.frameNo++
	f := &Frame{
		Addr:        m.top,
		Number:      m.frameNo,
		DynamicLink: m.fp,
		StaticLink:  static,
		Proc:        proc,
		Table:       table,
		Node:        node,
		Size:        size,
	}
	Clear(m.stack[f.Addr : f.Addr+size])
	m.frames[f.Addr] = f
	m.fp = f.Addr
	m.top += size
	return f, nil
}

// CloseFrame pops the current frame.
func (m *VM) CloseFrame() {
	f, ok := m.frames[m.fp]
	if !ok || f.Addr == 0 {
		return
	}
	delete(m.frames, f.Addr)
	m.top = f.Addr
	m.fp = f.DynamicLink
}

func (m *VM) Frame(addr int) (*Frame, bool) {
	f, ok := m.frames[addr]
	return f, ok
}

// FramePointer is the address of the innermost frame.
func (m *VM) FramePointer() int {
	return m.fp
}

// StaticFor finds the frame on the dynamic chain that holds table's
// lexically enclosing level; it becomes the static link of a new frame.
func (m *VM) StaticFor(table *symbols.Table) int {
	if table == nil || table.Outer == nil {
		return 0
	}
	for addr := m.fp; ; {
		f := m.frames[addr]
		if f.Table == table.Outer {
			return f.Addr
		}
		if f.Addr == 0 {
			return 0
		}
		addr = f.DynamicLink
	}
}

// Local returns a reference to tag's slot in frame f.
func (m *VM) Local(f *Frame, tag *symbols.Tag) Ref {
	return Ref{Segment: SegFrame, Offset: uint32(f.Addr + FrameHeaderSize + tag.Offset)}
}

// Lookup finds name on the dynamic chain, innermost first.
func (m *VM) Lookup(name string) (*Frame, *symbols.Tag, bool) {
	for addr := m.fp; ; {
		f := m.frames[addr]
		if f.Table != nil {
			if tag, ok := f.Table.Lookup(name); ok {
				return f, tag, true
			}
		}
		if f.Addr == 0 {
			return nil, nil, false
		}
		addr = f.DynamicLink
	}
}

func (m *VM) StackUsed() int { return m.top }
func (m *VM) StackSize() int { return len(m.stack) }

// Bytes returns the storage a reference designates. The slice aliases the
// program's memory.
func (m *VM) Bytes(r Ref, size int) ([]byte, error) {
	var mem []byte
	switch r.Segment {
	case SegNil:
		return nil, fmt.Errorf("accessing NIL name")
	case SegFrame:
		mem = m.stack[:m.top]
	case SegHeap:
		hd, ok := m.heap.Handle(r.Handle)
		if !ok {
			return nil, fmt.Errorf("reference to freed heap block %d", r.Handle)
		}
		mem = hd.Data
	case SegStack:
		mem = m.scratch[:m.scratchTop]
	default:
		return nil, fmt.Errorf("invalid reference segment %d", r.Segment)
	}
	start := int(r.Offset)
	if start < 0 || start+size > len(mem) {
		return nil, fmt.Errorf("reference %s+%d out of range", r.Segment, r.Offset)
	}
	return mem[start : start+size], nil
}

// Describe names the storage a reference points into, e.g. "frame(96)".
func (m *VM) Describe(r Ref) string {
	switch r.Segment {
	case SegHeap:
		if hd, ok := m.heap.Handle(r.Handle); ok {
			return fmt.Sprintf("heap(%#x)", hd.Pointer+uint64(r.Offset))
		}
		return "heap(?)"
	case SegFrame:
		return fmt.Sprintf("frame(%d)", r.Offset)
	case SegStack:
		return fmt.Sprintf("stack(%d)", r.Offset)
	}
	return "NIL"
}

// ScratchMark returns the current top of the transient area.
func (m *VM) ScratchMark() int { return m.scratchTop }

// ReleaseScratch drops every transient value allocated after mark.
func (m *VM) ReleaseScratch(mark int) {
	if mark >= 0 && mark <= m.scratchTop {
		m.scratchTop = mark
	}
}

func (m *VM) ScratchUsed() int { return m.scratchTop }
func (m *VM) ScratchSize() int { return len(m.scratch) }

// AllocScratch reserves size transient bytes.
func (m *VM) AllocScratch(size int) (Ref, []byte, error) {
	if m.scratchTop+size > len(m.scratch) {
		return Nil, nil, fmt.Errorf("evaluation stack exhausted")
	}
	r := Ref{Segment: SegStack, Offset: uint32(m.scratchTop)}
	b := m.scratch[m.scratchTop : m.scratchTop+size]
	Clear(b)
	m.scratchTop += size
	return r, b, nil
}

// NewRow allocates a row with the given bounds on the heap and returns a
// reference to its descriptor. Elements start out uninitialised.
func (m *VM) NewRow(row *typesystem.Mode, bounds ...[2]int64) (Ref, error) {
	elem := row.Deflex().Sub
	d := NewDescriptor(elem.Size(), Nil, bounds)
	elems, err := m.heap.Allocate(row, int(d.Elems())*elem.Size())
	if err != nil {
		return Nil, err
	}
	d.Elements = Ref{Segment: SegHeap, Handle: elems.Index}
	desc, err := m.heap.Allocate(row, DescriptorSize(len(bounds)))
	if err != nil {
		return Nil, err
	}
	EncodeDescriptor(desc.Data, d)
	return Ref{Segment: SegHeap, Handle: desc.Index}, nil
}

// NewString allocates a STRING on the heap.
func (m *VM) NewString(s string) (Ref, error) {
	runes := []rune(s)
	r, err := m.NewRow(m.Modes.String, [2]int64{1, int64(len(runes))})
	if err != nil {
		return Nil, err
	}
	return r, m.fillString(r, runes)
}

// TransientString builds a STRING in the transient area.
func (m *VM) TransientString(s string) (Ref, error) {
	runes := []rune(s)
	d := NewDescriptor(typesystem.CharSize, Nil, [][2]int64{{1, int64(len(runes))}})
	elems, _, err := m.AllocScratch(len(runes) * typesystem.CharSize)
	if err != nil {
		return Nil, err
	}
	d.Elements = elems
	r, b, err := m.AllocScratch(DescriptorSize(1))
	if err != nil {
		return Nil, err
	}
	EncodeDescriptor(b, d)
	return r, m.fillString(r, runes)
}

func (m *VM) fillString(r Ref, runes []rune) error {
	d, err := m.Descriptor(r)
	if err != nil {
		return err
	}
	for i, c := range runes {
		b, err := m.Bytes(d.Element(int64(i)), typesystem.CharSize)
		if err != nil {
			return err
		}
		PutChar(b, c)
	}
	return nil
}

// Descriptor reads the row descriptor r points at.
func (m *VM) Descriptor(r Ref) (Descriptor, error) {
	head, err := m.Bytes(r, 4)
	if err != nil {
		return Descriptor{}, err
	}
	dim := int(head[0]) | int(head[1])<<8 | int(head[2])<<16 | int(head[3])<<24
	b, err := m.Bytes(r, DescriptorSize(dim))
	if err != nil {
		return Descriptor{}, err
	}
	return DecodeDescriptor(b), nil
}

// ReadString decodes a row of CHAR.
func (m *VM) ReadString(r Ref) (string, error) {
	d, err := m.Descriptor(r)
	if err != nil {
		return "", err
	}
	n := d.Elems()
	runes := make([]rune, 0, n)
	for i := int64(0); i < n; i++ {
		b, err := m.Bytes(d.Element(i), typesystem.CharSize)
		if err != nil {
			return "", err
		}
		if !IsInitialised(b) {
			return "", fmt.Errorf("uninitialised value")
		}
		runes = append(runes, GetChar(b))
	}
	return string(runes), nil
}

// Action is the effect of executing a node. A bound action replaces the
// default walk over the node's children; it may call ExecChildren.
type Action func(m *VM, n *ast.Node) error

// Bind attaches an action to a node.
func (m *VM) Bind(n *ast.Node, a Action) {
	m.actions[n.ID] = a
}

// Reason tells the monitor why execution paused.
type Reason int

const (
	ReasonBreakpoint Reason = iota
	ReasonWatchpoint
	ReasonError
	ReasonTrap
	ReasonStep
	ReasonInterrupt
)

func (r Reason) String() string {
	switch r {
	case ReasonBreakpoint:
		return "breakpoint"
	case ReasonWatchpoint:
		return "watchpoint"
	case ReasonError:
		return "runtime error"
	case ReasonTrap:
		return "trap"
	case ReasonStep:
		return "step"
	case ReasonInterrupt:
		return "interrupt"
	}
	return "pause"
}

// Debugger is consulted while the program runs.
type Debugger interface {
	// Interrupt runs before every interruptible unit.
	Interrupt(m *VM, n *ast.Node) error
	// Break enters the monitor unconditionally.
	Break(m *VM, n *ast.Node, reason Reason, cause error) error
}

func (m *VM) SetDebugger(d Debugger) {
	m.debugger = d
}

// CurrentNode is the unit being executed.
func (m *VM) CurrentNode() *ast.Node {
	return m.current
}

// RequestInterrupt makes the program pause at the next interruptible
// unit. It is safe to call from a signal handler goroutine.
func (m *VM) RequestInterrupt() {
	m.interrupt.Store(true)
}

// Trap enters the monitor from inside an action.
func (m *VM) Trap(n *ast.Node) error {
	if m.debugger == nil {
		return nil
	}
	return m.debugger.Break(m, n, ReasonTrap, nil)
}

// Run executes the program from its root.
func (m *VM) Run(ctx context.Context) error {
	if m.Program == nil || m.Program.Root == nil {
		return nil
	}
	return m.Exec(ctx, m.Program.Root)
}

// Exec executes one node.
func (m *VM) Exec(ctx context.Context, n *ast.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.Attribute == ast.RoutineText {
		// Routine texts run only when called.
		return nil
	}
	if n.Interruptible {
		m.current = n
		if m.interrupt.CompareAndSwap(true, false) && m.debugger != nil {
			if err := m.debugger.Break(m, n, ReasonInterrupt, nil); err != nil {
				return err
			}
		}
		if m.debugger != nil {
			if err := m.debugger.Interrupt(m, n); err != nil {
				return err
			}
		}
	}
	if n.OpensFrame() && n.Table != nil {
		if _, err := m.OpenFrame(n.Table, n, false, m.StaticFor(n.Table)); err != nil {
			return m.fault(n, err)
		}
		defer m.CloseFrame()
	}
	if a, ok := m.actions[n.ID]; ok {
		return m.fault(n, a(m, n))
	}
	return m.ExecChildren(ctx, n)
}

func (m *VM) ExecChildren(ctx context.Context, n *ast.Node) error {
	for _, c := range n.Children {
		if err := m.Exec(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Call runs a routine text in a new procedure frame. Arguments are copied
// into the routine's first identifiers, in declaration order.
func (m *VM) Call(ctx context.Context, body *ast.Node, args ...[]byte) error {
	if body.Attribute != ast.RoutineText {
		return Fatalf("node %d is not a routine text", body.ID)
	}
	f, err := m.OpenFrame(body.Table, body, true, m.StaticFor(body.Table))
	if err != nil {
		return m.fault(body, err)
	}
	defer m.CloseFrame()
	if body.Table != nil {
		params := body.Table.Identifiers()
		for i, arg := range args {
			if i >= len(params) {
				break
			}
			dst, err := m.Bytes(m.Local(f, params[i]), len(arg))
			if err != nil {
				return err
			}
			copy(dst, arg)
		}
	}
	if a, ok := m.actions[body.ID]; ok {
		return m.fault(body, a(m, body))
	}
	return m.ExecChildren(ctx, body)
}

// fault gives the monitor a chance to inspect the program at the point a
// runtime error happened, before frames unwind.
func (m *VM) fault(n *ast.Node, err error) error {
	re, ok := err.(*RuntimeError)
	if !ok || re.Reported {
		return err
	}
	if re.Line == 0 {
		re.Line = n.Line
	}
	if m.debugger == nil {
		return re
	}
	re.Reported = true
	if derr := m.debugger.Break(m, n, ReasonError, re); derr != nil && derr != re {
		return derr
	}
	return re
}
