package resolve

import (
	"github.com/matzehuels/extwrangler/pkg/depexpr"
	"github.com/matzehuels/extwrangler/pkg/diag"
	"github.com/matzehuels/extwrangler/pkg/model"
)

// signal is what a visited node tells its parent.
type signal int

const (
	sigNone signal = iota
	sigItem
	sigVersion
	sigAnd
	sigOr
)

// result carries a signal and, for VERSION and AND, the version named.
type result struct {
	sig     signal
	version string
}

// establishes returns the version a child result moves the cursor to.
func (r result) establishes() string {
	if r.sig == sigVersion || r.sig == sigAnd {
		return r.version
	}
	return ""
}

// state is the per-item resolution state.
type state struct {
	item   string
	stack  []string
	acc    []string
	out    model.DependencyMap
	idx    *model.Index
	report diag.Reporter
}

func (s *state) top() string { return s.stack[len(s.stack)-1] }

func (s *state) setTop(v string) { s.stack[len(s.stack)-1] = v }

func (s *state) push(v string) { s.stack = append(s.stack, v) }

// pending queues name. The accumulator may hold duplicates; they are
// dropped when written to the map.
func (s *state) pending(name string) { s.acc = append(s.acc, name) }

// Resolver converts expression trees into raw dependency maps.
// A Resolver holds no per-item state and may be shared between goroutines.
type Resolver struct {
	Index    *model.Index
	Reporter diag.Reporter
}

// NewResolver creates a resolver over idx. A nil reporter discards warnings.
func NewResolver(idx *model.Index, rep diag.Reporter) *Resolver {
	if rep == nil {
		rep = diag.Discard
	}
	return &Resolver{Index: idx, Reporter: rep}
}

// Resolve walks root on behalf of item and returns its raw dependency map.
// A nil root yields a map holding only an empty base version entry.
//
// Item references are rewritten to their canonical names. References to
// unknown items or versions are reported as dangling and left out.
func (r *Resolver) Resolve(item string, root depexpr.Node) model.DependencyMap {
	base := r.Index.Base().Name
	if root == nil {
		return model.DependencyMap{base: {}}
	}

	s := &state{
		item:   item,
		stack:  []string{base},
		out:    model.DependencyMap{},
		idx:    r.Index,
		report: r.Reporter,
	}
	res := s.visit(root)
	if v := res.establishes(); v != "" {
		s.setTop(v)
	}
	for _, v := range r.Index.VersionsFrom(s.top()) {
		s.out.Append(v.Name, s.acc...)
	}
	return s.out
}

func (s *state) visit(n depexpr.Node) result {
	switch n := n.(type) {
	case *depexpr.ItemNode:
		return s.visitItem(n)
	case *depexpr.VersionNode:
		return s.visitVersion(n)
	case *depexpr.AndNode:
		return s.visitAnd(n)
	case *depexpr.OrNode:
		return s.visitOr(n)
	}
	return result{}
}

func (s *state) visitItem(n *depexpr.ItemNode) result {
	canon, ok := s.idx.Resolve(n.Name)
	if !ok {
		s.report.Report(diag.Warning{
			Kind:    diag.Dangling,
			Item:    s.item,
			Ref:     n.Name,
			Message: "dependency not found",
		})
		return result{}
	}
	s.pending(canon)
	return result{sig: sigItem}
}

func (s *state) visitVersion(n *depexpr.VersionNode) result {
	if !s.idx.HasVersion(n.Name) {
		s.report.Report(diag.Warning{
			Kind:    diag.Dangling,
			Item:    s.item,
			Ref:     n.Name,
			Message: "version not found",
		})
		return result{}
	}
	s.out.Ensure(n.Name)
	return result{sig: sigVersion, version: n.Name}
}

// visitAnd moves the cursor to every version a factor names. The group
// reports the last such version so an enclosing OR can detect a boundary.
func (s *state) visitAnd(n *depexpr.AndNode) result {
	var last string
	for _, f := range n.Terms {
		if v := s.visit(f).establishes(); v != "" {
			s.setTop(v)
			last = v
		}
	}
	return result{sig: sigAnd, version: last}
}

// visitOr closes an alternative whenever a term names a version other than
// the one in effect before the term. Items pending before the boundary go to
// the old version's entry; the new version keeps what was pending when the
// group was entered plus what the term itself added.
func (s *state) visitOr(n *depexpr.OrNode) result {
	start := len(s.acc)
	for _, t := range n.Terms {
		mark := len(s.acc)
		prev := s.top()

		v := s.visit(t).establishes()
		if v == "" || v == prev {
			continue
		}
		if mark > 0 {
			s.out.Append(prev, s.acc[:mark]...)
		}
		next := make([]string, 0, len(s.acc)-mark+start)
		next = append(next, s.acc[:start]...)
		next = append(next, s.acc[mark:]...)
		s.acc = next

		s.setTop(prev)
		s.push(v)
	}
	return result{sig: sigOr}
}
