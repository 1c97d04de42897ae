package nilcheck

import "os"

type node struct {
	next *node
	v    int
}

func (n *node) Next() *node { return n.next }

func checked(p *node) int {
	if p == nil {
		println("nil node")
	}
	return p.v // want "NUL000: possible null dereference of p"
}

func guarded(p *node) int {
	if p == nil {
		return 0
	}
	return p.v
}

func exits(p *node) int {
	if p == nil {
		os.Exit(1)
	}
	return p.v
}

func zero() int {
	var p *node
	return p.v // want "NUL000: possible null dereference of p"
}

func walk(n *node) int {
	for n != nil {
		n = n.Next()
	}
	return n.v // want "NUL000: possible null dereference of n"
}

func deferred(p *node) func() int {
	if p != nil {
		return nil
	}
	return func() int {
		return p.v // want "NUL000: possible null dereference of p"
	}
}
