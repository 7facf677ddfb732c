package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"pairchat/pkg/logger"
)

// Pebble implements TxStore over a pebble database. Rows are JSON values
// under "table:<name>:id:<id>" keys. A single write mutex serializes all
// mutations so feed delivery order always matches commit order.
type Pebble struct {
	path string
	mu   sync.Mutex
	feed *feed

	// dbMu guards the db pointer itself; Close nils it while reads may
	// run outside the write mutex.
	dbMu sync.RWMutex
	db   *pebble.DB
}

var _ TxStore = (*Pebble)(nil)

// Open opens (or creates) a pebble database at the given path.
func Open(path string) (*Pebble, error) {
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "err", err)
		return nil, errors.Wrap(err, "store.Open")
	}
	return &Pebble{path: path, db: db, feed: newFeed()}, nil
}

// Close closes the database. Open subscriptions stop receiving events;
// closing them afterwards stays safe.
func (s *Pebble) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dbMu.Lock()
	db := s.db
	s.db = nil
	s.dbMu.Unlock()
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	logger.Info("pebble_closed", "path", s.path)
	return nil
}

// handle snapshots the db pointer; nil means the store is closed.
func (s *Pebble) handle() *pebble.DB {
	s.dbMu.RLock()
	defer s.dbMu.RUnlock()
	return s.db
}

func rowKey(table, id string) []byte {
	return []byte("table:" + table + ":id:" + id)
}

func tablePrefix(table string) []byte {
	return []byte("table:" + table + ":id:")
}

type rowRec struct {
	id     string
	raw    []byte
	fields map[string]any
}

func decodeRow(raw []byte) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrap(err, "invalid row json")
	}
	return fields, nil
}

func fieldString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func matches(fields map[string]any, f Filter) bool {
	for k, want := range f {
		if fieldString(fields[k]) != want {
			return false
		}
	}
	return true
}

// scan reads every row of table matching f, in key (id) order.
func (s *Pebble) scan(table string, f Filter) ([]rowRec, error) {
	db := s.handle()
	if db == nil {
		return nil, ErrClosed
	}
	prefix := tablePrefix(table)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "store.scan")
	}
	defer iter.Close()

	var out []rowRec
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		raw := append([]byte(nil), iter.Value()...)
		fields, derr := decodeRow(raw)
		if derr != nil {
			logger.Warn("scan_skipping_bad_row", "table", table, "key", string(iter.Key()))
			continue
		}
		if !matches(fields, f) {
			continue
		}
		id := string(iter.Key()[len(prefix):])
		out = append(out, rowRec{id: id, raw: raw, fields: fields})
	}
	return out, nil
}

// orderLess compares by the sort field with ties broken by id. Ids are
// unique per table, so the ascending comparison is a strict total order
// and Desc is its exact inversion; a descending window reversed locally
// comes back ascending by (field, id).
func orderLess(a, b rowRec, o Order) bool {
	av, bv := a.fields[o.Field], b.fields[o.Field]
	an, aok := av.(float64)
	bn, bok := bv.(float64)
	var less, eq bool
	if aok && bok {
		less, eq = an < bn, an == bn
	} else {
		as, bs := fieldString(av), fieldString(bv)
		less, eq = as < bs, as == bs
	}
	if eq {
		less = a.id < b.id
	}
	if o.Desc {
		less = !less
	}
	return less
}

// Query returns rows matching f ordered by o, sliced to the inclusive
// window [start, end], plus the total number of matches.
func (s *Pebble) Query(table string, f Filter, o Order, start, end int) ([][]byte, int, error) {
	recs, err := s.scan(table, f)
	if err != nil {
		return nil, 0, err
	}
	if o.Field != "" {
		sort.SliceStable(recs, func(i, j int) bool { return orderLess(recs[i], recs[j], o) })
	}
	total := len(recs)
	opsTotal.WithLabelValues(table, "query").Inc()

	if start < 0 {
		start = 0
	}
	if end >= total {
		end = total - 1
	}
	if start > end || total == 0 {
		return nil, total, nil
	}
	out := make([][]byte, 0, end-start+1)
	for _, r := range recs[start : end+1] {
		out = append(out, r.raw)
	}
	return out, total, nil
}

func (s *Pebble) GetByID(table, id string) ([]byte, error) {
	db := s.handle()
	if db == nil {
		return nil, ErrClosed
	}
	val, closer, err := db.Get(rowKey(table, id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "store.GetByID")
	}
	out := append([]byte(nil), val...)
	_ = closer.Close()
	opsTotal.WithLabelValues(table, "get").Inc()
	return out, nil
}

// ensureID returns the row's id, assigning a fresh one into the raw JSON
// when the caller omitted it.
func ensureID(fields map[string]any, raw []byte) (string, []byte, error) {
	if id := fieldString(fields["id"]); id != "" {
		return id, raw, nil
	}
	id := uuid.NewString()
	fields["id"] = id
	nb, err := json.Marshal(fields)
	if err != nil {
		return "", nil, errors.Wrap(err, "store.ensureID")
	}
	return id, nb, nil
}

func (s *Pebble) Insert(table string, row []byte) (string, error) {
	fields, err := decodeRow(row)
	if err != nil {
		return "", err
	}
	id, raw, err := ensureID(fields, row)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.handle()
	if db == nil {
		return "", ErrClosed
	}
	if _, closer, gerr := db.Get(rowKey(table, id)); gerr == nil {
		_ = closer.Close()
		return "", ErrExists
	}
	if err := db.Set(rowKey(table, id), raw, pebble.Sync); err != nil {
		logger.Error("insert_failed", "table", table, "id", id, "err", err)
		return "", errors.Wrap(err, "store.Insert")
	}
	opsTotal.WithLabelValues(table, "insert").Inc()
	s.feed.dispatchInsert(table, fields, raw)
	return id, nil
}

func (s *Pebble) Update(table string, f Filter, p Patch) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.scan(table, f)
	if err != nil {
		return 0, err
	}
	db := s.handle()
	for _, r := range recs {
		for k, v := range p {
			r.fields[k] = v
		}
		raw, merr := json.Marshal(r.fields)
		if merr != nil {
			return 0, errors.Wrap(merr, "store.Update")
		}
		if err := db.Set(rowKey(table, r.id), raw, pebble.Sync); err != nil {
			logger.Error("update_failed", "table", table, "id", r.id, "err", err)
			return 0, errors.Wrap(err, "store.Update")
		}
		opsTotal.WithLabelValues(table, "update").Inc()
		s.feed.dispatchUpdate(table, r.fields, raw)
	}
	return len(recs), nil
}

func (s *Pebble) Delete(table string, f Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.scan(table, f)
	if err != nil {
		return 0, err
	}
	db := s.handle()
	for _, r := range recs {
		if err := db.Delete(rowKey(table, r.id), pebble.Sync); err != nil {
			logger.Error("delete_failed", "table", table, "id", r.id, "err", err)
			return 0, errors.Wrap(err, "store.Delete")
		}
		opsTotal.WithLabelValues(table, "delete").Inc()
		s.feed.dispatchDelete(table, r.fields, r.id)
	}
	return len(recs), nil
}

// Atomic applies a mixed batch of inserts and conditional updates in one
// pebble batch. Conditions are evaluated against pre-batch state; a
// conditional update matching zero rows aborts everything with ErrNoMatch.
func (s *Pebble) Atomic(ops []Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.handle()
	if db == nil {
		return ErrClosed
	}

	type event struct {
		kind   string
		table  string
		fields map[string]any
		raw    []byte
		id     string
	}
	batch := db.NewBatch()
	defer batch.Close()
	var events []event

	for _, op := range ops {
		switch op.Kind {
		case OpInsert:
			fields, err := decodeRow(op.Row)
			if err != nil {
				return err
			}
			id, raw, err := ensureID(fields, op.Row)
			if err != nil {
				return err
			}
			if _, closer, gerr := db.Get(rowKey(op.Table, id)); gerr == nil {
				_ = closer.Close()
				return ErrExists
			}
			if err := batch.Set(rowKey(op.Table, id), raw, nil); err != nil {
				return errors.Wrap(err, "store.Atomic")
			}
			events = append(events, event{kind: "insert", table: op.Table, fields: fields, raw: raw})
		case OpUpdate:
			recs, err := s.scan(op.Table, op.Filter)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				return ErrNoMatch
			}
			for _, r := range recs {
				for k, v := range op.Patch {
					r.fields[k] = v
				}
				raw, merr := json.Marshal(r.fields)
				if merr != nil {
					return errors.Wrap(merr, "store.Atomic")
				}
				if err := batch.Set(rowKey(op.Table, r.id), raw, nil); err != nil {
					return errors.Wrap(err, "store.Atomic")
				}
				events = append(events, event{kind: "update", table: op.Table, fields: r.fields, raw: raw})
			}
		default:
			return fmt.Errorf("unknown op kind %d", op.Kind)
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		logger.Error("atomic_commit_failed", "ops", len(ops), "err", err)
		return errors.Wrap(err, "store.Atomic")
	}
	for _, e := range events {
		opsTotal.WithLabelValues(e.table, e.kind).Inc()
		switch e.kind {
		case "insert":
			s.feed.dispatchInsert(e.table, e.fields, e.raw)
		case "update":
			s.feed.dispatchUpdate(e.table, e.fields, e.raw)
		}
	}
	return nil
}

func (s *Pebble) Subscribe(table string, f Filter, cb ChangeCallbacks) (*Subscription, error) {
	if s.handle() == nil {
		return nil, ErrClosed
	}
	return s.feed.subscribe(table, f, cb), nil
}
