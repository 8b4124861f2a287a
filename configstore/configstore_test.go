package configstore

import (
	"errors"
	"testing"
)

func TestStore_SaveAndCurrent(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	v1, err := s.Save(map[string]interface{}{"workers": float64(4)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if v1.Seq != 1 {
		t.Errorf("first version should be seq 1, got %d", v1.Seq)
	}
	if v1.ID == "" {
		t.Error("version should have an ID")
	}

	v2, err := s.Save(map[string]interface{}{"workers": float64(8)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if v2.Seq != 2 {
		t.Errorf("second version should be seq 2, got %d", v2.Seq)
	}

	cur, err := s.Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cur.ID != v2.ID {
		t.Errorf("current should be the latest save, got %s", cur.ID)
	}
	if cur.Config["workers"] != float64(8) {
		t.Errorf("current config mismatch: %v", cur.Config)
	}
}

func TestStore_EmptyCurrent(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := s.Current(); !errors.Is(err, ErrEmptyStore) {
		t.Errorf("expected ErrEmptyStore, got %v", err)
	}
}

func TestStore_GetUnknown(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := s.Get("nope"); !errors.Is(err, ErrVersionNotFound) {
		t.Errorf("expected ErrVersionNotFound, got %v", err)
	}
}

func TestStore_List(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Save(map[string]interface{}{"n": float64(i)}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	versions, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(versions))
	}
	for i, v := range versions {
		if v.Seq != uint64(i+1) {
			t.Errorf("versions out of order: index %d has seq %d", i, v.Seq)
		}
	}
}

func TestStore_Rollback(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	v1, _ := s.Save(map[string]interface{}{"mode": "safe"})
	s.Save(map[string]interface{}{"mode": "fast"})

	v3, err := s.Rollback(v1.ID)
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if v3.Seq != 3 {
		t.Errorf("rollback should create a new head, got seq %d", v3.Seq)
	}
	if v3.ID == v1.ID {
		t.Error("rollback should mint a new ID")
	}
	if v3.Config["mode"] != "safe" {
		t.Errorf("rollback should restore the old config, got %v", v3.Config)
	}

	// History is preserved.
	versions, _ := s.List()
	if len(versions) != 3 {
		t.Errorf("rollback should not rewrite history, have %d versions", len(versions))
	}
}

func TestStore_RollbackUnknown(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := s.Rollback("nope"); !errors.Is(err, ErrVersionNotFound) {
		t.Errorf("expected ErrVersionNotFound, got %v", err)
	}
}

func TestStore_RecoversSequence(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	s.Save(map[string]interface{}{"a": float64(1)})
	s.Save(map[string]interface{}{"a": float64(2)})

	// Reopen against the same directory.
	s2, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, err := s2.Save(map[string]interface{}{"a": float64(3)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if v.Seq != 3 {
		t.Errorf("reopened store should continue the sequence, got %d", v.Seq)
	}
}

func TestDiff(t *testing.T) {
	a := map[string]interface{}{
		"workers": float64(4),
		"limits": map[string]interface{}{
			"window":  "1m",
			"max":     float64(100),
			"dropped": true,
		},
		"name": "prod",
	}
	b := map[string]interface{}{
		"workers": float64(8),
		"limits": map[string]interface{}{
			"window": "1m",
			"max":    float64(200),
			"burst":  float64(10),
		},
		"name": "prod",
	}

	changes := Diff(a, b)

	want := map[string]ChangeOp{
		"workers":        OpChanged,
		"limits.max":     OpChanged,
		"limits.dropped": OpRemoved,
		"limits.burst":   OpAdded,
	}
	if len(changes) != len(want) {
		t.Fatalf("expected %d changes, got %d: %+v", len(want), len(changes), changes)
	}
	for _, c := range changes {
		op, ok := want[c.Path]
		if !ok {
			t.Errorf("unexpected change at %s", c.Path)
			continue
		}
		if c.Op != op {
			t.Errorf("%s: expected %s, got %s", c.Path, op, c.Op)
		}
	}
}

func TestDiff_Identical(t *testing.T) {
	cfg := map[string]interface{}{
		"nested": map[string]interface{}{"a": float64(1)},
	}
	if changes := Diff(cfg, cfg); len(changes) != 0 {
		t.Errorf("identical trees should produce no changes, got %+v", changes)
	}
}

func TestDiff_ArraysAreLeaves(t *testing.T) {
	a := map[string]interface{}{"tags": []interface{}{"x", "y"}}
	b := map[string]interface{}{"tags": []interface{}{"x", "z"}}

	changes := Diff(a, b)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].Path != "tags" || changes[0].Op != OpChanged {
		t.Errorf("expected tags changed, got %+v", changes[0])
	}
}
