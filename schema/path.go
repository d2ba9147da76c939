package schema

import (
	"strconv"
	"strings"

	"github.com/Neumenon/lambda/lambda"
)

// SegmentKind discriminates path segments.
type SegmentKind uint8

const (
	SegmentField     SegmentKind = iota // /name
	SegmentIndex                        // [i]
	SegmentElement                      // /<tag>
	SegmentAttribute                    // /@name
)

// PathSegment is one step of a breadcrumb. Segments link to their parent so
// that sibling paths share a prefix.
type PathSegment struct {
	Kind   SegmentKind
	Name   string
	Index  int
	Parent *PathSegment
}

func (p *PathSegment) field(name string) *PathSegment {
	return &PathSegment{Kind: SegmentField, Name: name, Parent: p}
}

func (p *PathSegment) index(i int) *PathSegment {
	return &PathSegment{Kind: SegmentIndex, Index: i, Parent: p}
}

func (p *PathSegment) element(tag string) *PathSegment {
	return &PathSegment{Kind: SegmentElement, Name: tag, Parent: p}
}

func (p *PathSegment) attribute(name string) *PathSegment {
	return &PathSegment{Kind: SegmentAttribute, Name: name, Parent: p}
}

// Segments returns the path from the root to p.
func (p *PathSegment) Segments() []*PathSegment {
	var out []*PathSegment
	for s := p; s != nil; s = s.Parent {
		out = append(out, s)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// String renders the breadcrumb, e.g. /author/affiliations[0]/name. The
// empty path is "/".
func (p *PathSegment) String() string {
	if p == nil {
		return "/"
	}
	var sb strings.Builder
	for _, s := range p.Segments() {
		switch s.Kind {
		case SegmentField:
			sb.WriteByte('/')
			sb.WriteString(s.Name)
		case SegmentIndex:
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(s.Index))
			sb.WriteByte(']')
		case SegmentElement:
			sb.WriteString("/<")
			sb.WriteString(s.Name)
			sb.WriteByte('>')
		case SegmentAttribute:
			sb.WriteString("/@")
			sb.WriteString(s.Name)
		}
	}
	return sb.String()
}

// Resolve follows path from root. Element segments check the tag of the
// current value without moving; the others step into a field, item, child
// or attribute. It reports false when the route does not exist.
func Resolve(root lambda.Item, path *PathSegment) (lambda.Item, bool) {
	cur := root
	for _, s := range path.Segments() {
		switch s.Kind {
		case SegmentField:
			if cur.Type() != lambda.TypeMap {
				return lambda.Null, false
			}
			v, ok := cur.Map().Get(s.Name)
			if !ok {
				return lambda.Null, false
			}
			cur = v

		case SegmentIndex:
			var items []lambda.Item
			switch cur.Type() {
			case lambda.TypeArray:
				items = cur.Array().Items
			case lambda.TypeList:
				items = cur.List().Items
			case lambda.TypeElement:
				items = cur.Element().Children()
			default:
				return lambda.Null, false
			}
			if s.Index < 0 || s.Index >= len(items) {
				return lambda.Null, false
			}
			cur = items[s.Index]

		case SegmentElement:
			if cur.Type() != lambda.TypeElement || cur.Element().Tag() != s.Name {
				return lambda.Null, false
			}

		case SegmentAttribute:
			if cur.Type() != lambda.TypeElement {
				return lambda.Null, false
			}
			v, ok := cur.Element().Attr(s.Name)
			if !ok {
				return lambda.Null, false
			}
			cur = v
		}
	}
	return cur, true
}
