package booleq

import (
	"cmp"
	"slices"
)

// disjointSet groups variables that atoms constrain to be equal
type disjointSet struct {
	parent map[string]string
	rank   map[string]int
}

func newDisjointSet(elems []string) *disjointSet {
	d := &disjointSet{
		parent: make(map[string]string, len(elems)),
		rank:   make(map[string]int, len(elems)),
	}
	for _, e := range elems {
		d.parent[e] = e
	}
	return d
}

func (d *disjointSet) find(e string) string {
	root := e
	for d.parent[root] != root {
		root = d.parent[root]
	}
	for e != root {
		next := d.parent[e]
		d.parent[e] = root
		e = next
	}
	return root
}

func (d *disjointSet) union(a, b string) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	switch cmp.Compare(d.rank[ra], d.rank[rb]) {
	case -1:
		d.parent[ra] = rb
	case 1:
		d.parent[rb] = ra
	default:
		d.parent[rb] = ra
		d.rank[ra]++
	}
}

// components returns every group keyed by its root, members sorted
func (d *disjointSet) components() map[string][]string {
	ret := make(map[string][]string)
	for e := range d.parent {
		root := d.find(e)
		ret[root] = append(ret[root], e)
	}
	for _, members := range ret {
		slices.Sort(members)
	}
	return ret
}
