package rawdump

// wireInst is one connected wire slot of one tile.
type wireInst struct {
	crd  Coord
	conn int
}

// nodeSet groups connected wire slots into nodes with union-find.
type nodeSet struct {
	parent map[wireInst]wireInst
	rank   map[wireInst]int
}

func newNodeSet() *nodeSet {
	return &nodeSet{
		parent: make(map[wireInst]wireInst),
		rank:   make(map[wireInst]int),
	}
}

func (ns *nodeSet) add(w wireInst) {
	if _, ok := ns.parent[w]; !ok {
		ns.parent[w] = w
	}
}

// union merges the nodes holding a and b.
func (ns *nodeSet) union(a, b wireInst) {
	ns.add(a)
	ns.add(b)
	ra := ns.find(a)
	rb := ns.find(b)
	if ra == rb {
		return
	}
	switch {
	case ns.rank[ra] < ns.rank[rb]:
		ns.parent[ra] = rb
	case ns.rank[ra] > ns.rank[rb]:
		ns.parent[rb] = ra
	default:
		ns.parent[rb] = ra
		ns.rank[ra]++
	}
}

// find returns the representative of w, compressing the path on the way.
func (ns *nodeSet) find(w wireInst) wireInst {
	ns.add(w)
	root := w
	for ns.parent[root] != root {
		root = ns.parent[root]
	}
	for w != root {
		next := ns.parent[w]
		ns.parent[w] = root
		w = next
	}
	return root
}
