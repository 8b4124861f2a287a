package configstore

import (
	"fmt"
	"reflect"
	"sort"
)

// ChangeOp classifies a single difference between two configurations.
type ChangeOp string

const (
	OpAdded   ChangeOp = "added"
	OpRemoved ChangeOp = "removed"
	OpChanged ChangeOp = "changed"
)

// Change is one difference found by Diff. Path is dot-separated.
type Change struct {
	Path string      `json:"path"`
	Op   ChangeOp    `json:"op"`
	From interface{} `json:"from,omitempty"`
	To   interface{} `json:"to,omitempty"`
}

// Diff walks two decoded JSON trees and reports added, removed and
// changed paths, sorted by path. Nested maps recurse; everything else
// (including arrays) is compared as a leaf.
func Diff(a, b map[string]interface{}) []Change {
	var changes []Change
	diffMaps("", a, b, &changes)
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return changes
}

func diffMaps(prefix string, a, b map[string]interface{}, out *[]Change) {
	for key, av := range a {
		path := joinPath(prefix, key)
		bv, ok := b[key]
		if !ok {
			*out = append(*out, Change{Path: path, Op: OpRemoved, From: av})
			continue
		}
		diffValues(path, av, bv, out)
	}
	for key, bv := range b {
		if _, ok := a[key]; !ok {
			*out = append(*out, Change{Path: joinPath(prefix, key), Op: OpAdded, To: bv})
		}
	}
}

func diffValues(path string, av, bv interface{}, out *[]Change) {
	am, aIsMap := av.(map[string]interface{})
	bm, bIsMap := bv.(map[string]interface{})
	if aIsMap && bIsMap {
		diffMaps(path, am, bm, out)
		return
	}
	if !reflect.DeepEqual(av, bv) {
		*out = append(*out, Change{Path: path, Op: OpChanged, From: av, To: bv})
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return fmt.Sprintf("%s.%s", prefix, key)
}
