package analyzer

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/panbanda/revamp/pkg/parser"
)

func TestForEachFile_PreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	got := ForEachFile(items, func(n int) (int, error) {
		return n * n, nil
	}, nil)

	if len(got) != len(items) {
		t.Fatalf("len = %d, want %d", len(got), len(items))
	}
	for i, n := range items {
		if got[i] != n*n {
			t.Errorf("got[%d] = %d, want %d", i, got[i], n*n)
		}
	}
}

func TestForEachFile_DropsErrors(t *testing.T) {
	items := []string{"a", "skip", "b"}
	got := ForEachFile(items, func(s string) (string, error) {
		if s == "skip" {
			return "", errors.New("skip")
		}
		return s, nil
	}, nil)

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("ForEachFile() = %v, want [a b]", got)
	}
}

func TestForEachFile_Progress(t *testing.T) {
	var calls atomic.Int32
	ForEachFileN([]int{1, 2, 3}, 1, func(n int) (int, error) { return n, nil }, func() {
		calls.Add(1)
	})
	if calls.Load() != 3 {
		t.Errorf("progress calls = %d, want 3", calls.Load())
	}
}

func TestForEachFile_Empty(t *testing.T) {
	if got := ForEachFile([]int{}, func(n int) (int, error) { return n, nil }, nil); got != nil {
		t.Errorf("ForEachFile(empty) = %v, want nil", got)
	}
}

func TestMapFiles(t *testing.T) {
	sources := []string{"package a\nfunc A() {}\n", "package b\nfunc B() {}\nfunc C() {}\n"}
	got := MapFiles(sources, func(p *parser.Parser, src string) (int, error) {
		return p.CountMethods([]byte(src), parser.LangGo, "x.go")
	}, nil)

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("MapFiles() = %v, want [1 2]", got)
	}
}
