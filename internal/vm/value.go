package vm

import (
	"encoding/binary"
	"math"

	"github.com/funvibe/monitor/internal/typesystem"
)

// Status bits, stored in the first byte of every value.
const (
	Initialised byte = 1 << iota
	Constant
)

// Segment says which storage area a reference points into.
type Segment byte

const (
	SegNil   Segment = iota
	SegFrame         // activation storage, offset is the absolute address
	SegHeap          // heap handle, offset is relative to the handle's data
	SegStack         // transient values produced while evaluating
)

func (s Segment) String() string {
	switch s {
	case SegFrame:
		return "frame"
	case SegHeap:
		return "heap"
	case SegStack:
		return "stack"
	}
	return "nil"
}

// Ref is a decoded reference value.
type Ref struct {
	Segment Segment
	Handle  uint32
	Offset  uint32
}

// Nil is the reference NIL.
var Nil = Ref{}

func (r Ref) IsNil() bool {
	return r.Segment == SegNil
}

// Add advances a reference by n bytes.
func (r Ref) Add(n int) Ref {
	r.Offset += uint32(n)
	return r
}

// Procedure kinds.
const (
	ProcSkip   byte = iota // no body; cannot be shown
	ProcStdenv             // standard-environ routine, Body is the routine index
	ProcBody               // routine text, Body is the node id
)

// Proc is a decoded procedure value.
type Proc struct {
	Kind    byte
	Body    uint32
	Environ uint32 // frame address the routine text was elaborated in
}

func IsInitialised(b []byte) bool {
	return len(b) > 0 && b[0]&Initialised != 0
}

// Clear marks a value uninitialised.
func Clear(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func PutInt(b []byte, v int64) {
	b[0] = Initialised
	binary.LittleEndian.PutUint64(b[1:], uint64(v))
}

func GetInt(b []byte) int64 {
	return int64(binary.LittleEndian.Uint64(b[1:]))
}

func PutReal(b []byte, v float64) {
	b[0] = Initialised
	binary.LittleEndian.PutUint64(b[1:], math.Float64bits(v))
}

func GetReal(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b[1:]))
}

func PutBits(b []byte, v uint64) {
	b[0] = Initialised
	binary.LittleEndian.PutUint64(b[1:], v)
}

func GetBits(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b[1:])
}

func PutBool(b []byte, v bool) {
	b[0] = Initialised
	b[1] = 0
	if v {
		b[1] = 1
	}
}

func GetBool(b []byte) bool {
	return b[1] != 0
}

func PutChar(b []byte, r rune) {
	b[0] = Initialised
	binary.LittleEndian.PutUint32(b[1:], uint32(r))
}

func GetChar(b []byte) rune {
	return rune(binary.LittleEndian.Uint32(b[1:]))
}

func PutRef(b []byte, r Ref) {
	b[0] = Initialised
	b[1] = byte(r.Segment)
	binary.LittleEndian.PutUint32(b[2:], r.Handle)
	binary.LittleEndian.PutUint32(b[6:], r.Offset)
}

func GetRef(b []byte) Ref {
	return Ref{
		Segment: Segment(b[1]),
		Handle:  binary.LittleEndian.Uint32(b[2:]),
		Offset:  binary.LittleEndian.Uint32(b[6:]),
	}
}

func PutProc(b []byte, p Proc) {
	b[0] = Initialised
	b[1] = p.Kind
	binary.LittleEndian.PutUint32(b[2:], p.Body)
	binary.LittleEndian.PutUint32(b[6:], p.Environ)
}

func GetProc(b []byte) Proc {
	return Proc{
		Kind:    b[1],
		Body:    binary.LittleEndian.Uint32(b[2:]),
		Environ: binary.LittleEndian.Uint32(b[6:]),
	}
}

// PutUnion stores the active arm's mode id; the payload follows the
// header and is written by the caller.
func PutUnion(b []byte, arm *typesystem.Mode) {
	b[0] = Initialised
	binary.LittleEndian.PutUint32(b[1:], uint32(arm.Canonical().ID))
}

func UnionArm(b []byte) int {
	return int(binary.LittleEndian.Uint32(b[1:]))
}

func UnionPayload(b []byte) []byte {
	return b[typesystem.UnionHeaderSize:]
}

// Tuple holds the bounds of one dimension of a row.
type Tuple struct {
	Lwb, Upb    int64
	Span, Shift int64
}

// Descriptor is the decoded header of a row. Element k of a
// one-dimensional row lives at Elements + (k*Span - Shift)*ElemSize.
type Descriptor struct {
	ElemSize int
	Elements Ref
	Tuples   []Tuple
}

const (
	descriptorHeader = 4 + 4 + typesystem.RefSize
	tupleSize        = 4 * 8
)

// DescriptorSize is the storage needed for a descriptor of dim dimensions.
func DescriptorSize(dim int) int {
	return descriptorHeader + dim*tupleSize
}

// NewDescriptor lays out a row-major descriptor for the given bounds.
func NewDescriptor(elemSize int, elements Ref, bounds [][2]int64) Descriptor {
	d := Descriptor{ElemSize: elemSize, Elements: elements, Tuples: make([]Tuple, len(bounds))}
	span := int64(1)
	for i := len(bounds) - 1; i >= 0; i-- {
		t := Tuple{Lwb: bounds[i][0], Upb: bounds[i][1], Span: span}
		d.Tuples[i] = t
		if n := t.Upb - t.Lwb + 1; n > 0 {
			span *= n
		}
	}
	for i := range d.Tuples {
		d.Tuples[i].Shift = d.Tuples[i].Lwb * d.Tuples[i].Span
	}
	return d
}

func (d Descriptor) Dim() int {
	return len(d.Tuples)
}

// Elems is the total number of elements.
func (d Descriptor) Elems() int64 {
	if len(d.Tuples) == 0 {
		return 0
	}
	n := int64(1)
	for _, t := range d.Tuples {
		k := t.Upb - t.Lwb + 1
		if k <= 0 {
			return 0
		}
		n *= k
	}
	return n
}

// Index returns the flat element index for in-bounds subscripts.
func (d Descriptor) Index(subscripts []int64) int64 {
	var idx int64
	for i, k := range subscripts {
		idx += k*d.Tuples[i].Span - d.Tuples[i].Shift
	}
	return idx
}

// Element returns a reference to the element with flat index idx.
func (d Descriptor) Element(idx int64) Ref {
	return d.Elements.Add(int(idx) * d.ElemSize)
}

func EncodeDescriptor(b []byte, d Descriptor) {
	binary.LittleEndian.PutUint32(b[0:], uint32(len(d.Tuples)))
	binary.LittleEndian.PutUint32(b[4:], uint32(d.ElemSize))
	PutRef(b[8:], d.Elements)
	off := descriptorHeader
	for _, t := range d.Tuples {
		binary.LittleEndian.PutUint64(b[off:], uint64(t.Lwb))
		binary.LittleEndian.PutUint64(b[off+8:], uint64(t.Upb))
		binary.LittleEndian.PutUint64(b[off+16:], uint64(t.Span))
		binary.LittleEndian.PutUint64(b[off+24:], uint64(t.Shift))
		off += tupleSize
	}
}

func DecodeDescriptor(b []byte) Descriptor {
	dim := int(binary.LittleEndian.Uint32(b[0:]))
	d := Descriptor{
		ElemSize: int(binary.LittleEndian.Uint32(b[4:])),
		Elements: GetRef(b[8:]),
		Tuples:   make([]Tuple, dim),
	}
	off := descriptorHeader
	for i := range d.Tuples {
		d.Tuples[i] = Tuple{
			Lwb:   int64(binary.LittleEndian.Uint64(b[off:])),
			Upb:   int64(binary.LittleEndian.Uint64(b[off+8:])),
			Span:  int64(binary.LittleEndian.Uint64(b[off+16:])),
			Shift: int64(binary.LittleEndian.Uint64(b[off+24:])),
		}
		off += tupleSize
	}
	return d
}
