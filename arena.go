package glrcore

import (
	"sync"

	list "github.com/bahlo/generic-list-go"
)

// slabClass distinguishes the two node-allocation regimes described in the
// tree layer: incremental edits allocate and free small bursts of nodes
// rapidly, while a full parse allocates a large, mostly-stable tree once.
// Splitting the pool avoids a hot incremental edit competing with a cold
// full-parse allocation for the same sync.Pool shard.
type slabClass uint8

const (
	slabIncremental slabClass = iota
	slabFull
	slabClassCount
)

// freeListCap bounds how many just-retired nodes an Arena keeps on its
// fast free list before spilling back to sync.Pool. A retired node that
// drops to zero references mid-edit is very likely to be needed again a
// few allocations later (the cursor breaks a subtree down and immediately
// rebuilds a leaf in roughly the same shape), so a short LIFO list ahead
// of the pool avoids a sync.Pool round trip for the common case.
const freeListCap = 256

// Arena owns node allocation for one Parser. It is not safe for concurrent
// use from multiple goroutines; a Parser's single-threaded driver is the
// only caller.
type Arena struct {
	pools [slabClassCount]sync.Pool
	free  [slabClassCount]*list.List[*Node]
}

// NewArena builds an empty Arena.
func NewArena() *Arena {
	a := &Arena{}
	for i := range a.pools {
		a.pools[i] = sync.Pool{New: func() any { return &Node{} }}
		a.free[i] = list.New[*Node]()
	}
	return a
}

func (a *Arena) alloc(class slabClass) *Node {
	if el := a.free[class].Back(); el != nil {
		n := el.Value
		a.free[class].Remove(el)
		n.reset()
		n.refCount = 1
		n.arena = a
		n.class = class
		return n
	}
	n := a.pools[class].Get().(*Node)
	n.reset()
	n.refCount = 1
	n.arena = a
	n.class = class
	return n
}

func (a *Arena) free_(n *Node) {
	class := n.class
	n.reset()
	if a.free[class].Len() < freeListCap {
		a.free[class].PushBack(n)
		return
	}
	a.pools[class].Put(n)
}

// AllocIncremental returns a fresh node from the incremental class;
// MakeMissingLeaf, MakeError and MakeErrorRepeat allocate from it.
func (a *Arena) AllocIncremental() *Node { return a.alloc(slabIncremental) }

// AllocFull returns a fresh node from the full-parse class.
func (a *Arena) AllocFull() *Node { return a.alloc(slabFull) }
