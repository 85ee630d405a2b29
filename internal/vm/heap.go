package vm

import (
	"fmt"

	"github.com/funvibe/monitor/internal/typesystem"
)

// heapBase is the pseudo address of the first heap byte; pointers are
// only used for display.
const heapBase = 0x10000

// Handle describes one live heap block.
type Handle struct {
	Index   uint32
	Pointer uint64
	Size    int
	Mode    *typesystem.Mode
	Data    []byte

	next, prev *Handle
}

// Next returns the following handle in the live catalog.
func (h *Handle) Next() *Handle {
	return h.next
}

// Heap keeps the catalog of live blocks, newest first. Index 0 is never
// used so that a zero handle field in a reference is recognisably bad.
type Heap struct {
	handles    []*Handle
	busy       *Handle
	count      int
	used       int
	capacity   int
	maxHandles int
	pointer    uint64
}

func NewHeap(capacity, maxHandles int) *Heap {
	return &Heap{
		handles:    []*Handle{nil},
		capacity:   capacity,
		maxHandles: maxHandles,
		pointer:    heapBase,
	}
}

// Allocate adds a block to the catalog. Only the engine allocates.
func (h *Heap) Allocate(mode *typesystem.Mode, size int) (*Handle, error) {
	if h.used+size > h.capacity {
		return nil, Fatalf("out of heap space (%d bytes requested, %d available)", size, h.capacity-h.used)
	}
	if h.maxHandles > 0 && h.count >= h.maxHandles {
		return nil, Fatalf("out of heap handles")
	}
	hd := &Handle{
		Index:   uint32(len(h.handles)),
		Pointer: h.pointer,
		Size:    size,
		Mode:    mode,
		Data:    make([]byte, size),
	}
	h.pointer += uint64(size)
	h.handles = append(h.handles, hd)
	hd.next = h.busy
	if h.busy != nil {
		h.busy.prev = hd
	}
	h.busy = hd
	h.count++
	h.used += size
	return hd, nil
}

// Free unlinks a block, as the collector does.
func (h *Heap) Free(hd *Handle) {
	if hd == nil || h.handles[hd.Index] != hd {
		return
	}
	if hd.prev != nil {
		hd.prev.next = hd.next
	} else {
		h.busy = hd.next
	}
	if hd.next != nil {
		hd.next.prev = hd.prev
	}
	h.handles[hd.Index] = nil
	h.count--
	h.used -= hd.Size
}

func (h *Heap) Handle(index uint32) (*Handle, bool) {
	if index == 0 || int(index) >= len(h.handles) || h.handles[index] == nil {
		return nil, false
	}
	return h.handles[index], true
}

// First returns the newest live handle.
func (h *Heap) First() *Handle {
	return h.busy
}

func (h *Heap) Count() int    { return h.count }
func (h *Heap) Used() int     { return h.used }
func (h *Heap) Capacity() int { return h.capacity }

func (h *Heap) String() string {
	return fmt.Sprintf("heap (%d handles, %d/%d bytes)", h.count, h.used, h.capacity)
}
