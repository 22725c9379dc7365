package ast

import (
	"hash"
	"hash/fnv"

	"github.com/Konsultn-Engineering/postmodel/utils"
)

// fingerprinter accumulates an fnv-64a digest over a node and its children.
type fingerprinter struct {
	h hash.Hash64
}

func newFingerprinter(kind string) fingerprinter {
	f := fingerprinter{h: fnv.New64a()}
	_, _ = f.h.Write([]byte(kind))
	_, _ = f.h.Write([]byte{':'})
	return f
}

func (f fingerprinter) node(n Node) {
	if n == nil {
		_, _ = f.h.Write(utils.U64ToBytes(0))
		return
	}
	_, _ = f.h.Write(utils.U64ToBytes(n.Fingerprint()))
}

func (f fingerprinter) nodes(ns []Node) {
	_, _ = f.h.Write(utils.U64ToBytes(uint64(len(ns))))
	for _, n := range ns {
		f.node(n)
	}
}

func (f fingerprinter) str(s string) {
	_, _ = f.h.Write([]byte(s))
	_, _ = f.h.Write([]byte{0})
}

func (f fingerprinter) flag(b bool) {
	if b {
		_, _ = f.h.Write([]byte{1})
		return
	}
	_, _ = f.h.Write([]byte{0})
}

func (f fingerprinter) num(n int) {
	_, _ = f.h.Write(utils.U64ToBytes(uint64(n)))
}

func (f fingerprinter) sum() uint64 {
	return f.h.Sum64()
}
