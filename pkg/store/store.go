package store

import "errors"

var (
	ErrNotFound = errors.New("row not found")
	ErrExists   = errors.New("row already exists")
	// ErrNoMatch is returned by Atomic when a conditional update inside
	// the batch matched zero rows; nothing from the batch is applied.
	ErrNoMatch = errors.New("conditional op matched no rows")
	ErrClosed  = errors.New("store is closed")
)

// Filter selects rows by equality on top-level JSON string fields.
type Filter map[string]string

// Patch assigns top-level JSON fields on matched rows.
type Patch map[string]any

// Order names the field rows are sorted by. Numeric fields compare
// numerically, everything else lexically; ties always break by id so a
// given table has one total order.
type Order struct {
	Field string
	Desc  bool
}

// ChangeCallbacks receives row-level change events for a subscription.
// Insert and update callbacks get the full post-write row; delete gets
// only the id. Callbacks run synchronously on the store's write path in
// commit order and must not issue store writes.
type ChangeCallbacks struct {
	OnInsert func(row []byte)
	OnUpdate func(row []byte)
	OnDelete func(id string)
}

// Store is the capability surface the sync core requires: ranged ordered
// reads with a total count, conditional writes, id lookup and a change
// feed. Implementations assign ids to inserted rows that lack one.
type Store interface {
	// Query returns the rows matching f ordered by o, sliced to the
	// inclusive window [start, end], plus the total match count.
	Query(table string, f Filter, o Order, start, end int) ([][]byte, int, error)
	GetByID(table, id string) ([]byte, error)
	Insert(table string, row []byte) (string, error)
	// Update patches every row matching f and reports how many rows were
	// affected. Zero affected rows is not an error at this level.
	Update(table string, f Filter, p Patch) (int, error)
	Delete(table string, f Filter) (int, error)
	Subscribe(table string, f Filter, cb ChangeCallbacks) (*Subscription, error)
}

// TxStore adds atomic multi-op application on top of Store. The friend
// acceptance workflow needs its status flip and conversation provisioning
// to land together or not at all.
type TxStore interface {
	Store
	Atomic(ops []Op) error
}

type OpKind int

const (
	OpInsert OpKind = iota
	OpUpdate
)

// Op is one write inside an Atomic batch. Insert ops carry Row; update
// ops carry Filter and Patch and are conditional: matching zero rows
// aborts the whole batch with ErrNoMatch.
type Op struct {
	Kind   OpKind
	Table  string
	Row    []byte
	Filter Filter
	Patch  Patch
}
