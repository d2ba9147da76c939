package schema

import (
	"fmt"
	"io"
	"strings"

	"github.com/lthibault/log"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/Neumenon/lambda/lambda"
)

// ErrorCode classifies a validation failure.
type ErrorCode string

const (
	ParseError          ErrorCode = "PARSE_ERROR"
	TypeMismatch        ErrorCode = "TYPE_MISMATCH"
	ConstraintViolation ErrorCode = "CONSTRAINT_VIOLATION"
	MissingField        ErrorCode = "MISSING_FIELD"
	NullValue           ErrorCode = "NULL_VALUE"
	UnknownField        ErrorCode = "UNKNOWN_FIELD"
)

// DefaultMaxDepth bounds how deep the validator descends into a value.
const DefaultMaxDepth = 64

// ErrUnknownType is returned when a validation target names no declaration.
var ErrUnknownType = errors.New("schema: unknown type")

// ValidationError represents one validation failure. Errors of a result are
// chained through Next in depth-first order of the input.
type ValidationError struct {
	Code     ErrorCode
	Message  string
	Path     *PathSegment
	Expected lambda.Type
	Actual   lambda.Item
	Next     *ValidationError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Code, e.Path, e.Message)
}

// ValidationResult is the outcome of one validation.
type ValidationResult struct {
	Valid      bool
	ErrorCount int
	Errors     *ValidationError
}

// List returns the errors as a slice.
func (r *ValidationResult) List() []*ValidationError {
	out := make([]*ValidationError, 0, r.ErrorCount)
	for e := r.Errors; e != nil; e = e.Next {
		out = append(out, e)
	}
	return out
}

// Err combines the errors into one error, or returns nil when valid.
func (r *ValidationResult) Err() error {
	var err error
	for e := r.Errors; e != nil; e = e.Next {
		err = multierr.Append(err, e)
	}
	return err
}

// ParseErrorResult reports an input that could not be parsed.
func ParseErrorResult(err error) *ValidationResult {
	e := &ValidationError{Code: ParseError, Message: err.Error()}
	return &ValidationResult{ErrorCount: 1, Errors: e}
}

type errorList struct {
	head, tail *ValidationError
	n          int
}

func (l *errorList) add(e *ValidationError) {
	if l.tail == nil {
		l.head = e
	} else {
		l.tail.Next = e
	}
	l.tail = e
	l.n++
}

func (l *errorList) appendList(o errorList) {
	for e := o.head; e != nil; {
		next := e.Next
		e.Next = nil
		l.add(e)
		e = next
	}
}

// ============================================================
// Validator
// ============================================================

type options struct {
	maxDepth     int
	strict       bool
	allowUnknown *bool
	log          log.Logger
}

// Option configures a Validator.
type Option func(*options)

// WithMaxDepth bounds descent into nested values.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithStrict rejects fields and attributes the schema does not declare,
// unless WithAllowUnknownFields overrides it.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithAllowUnknownFields sets whether undeclared fields are accepted.
func WithAllowUnknownFields(allow bool) Option {
	return func(o *options) { o.allowUnknown = &allow }
}

// WithLogger sets the validator's logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.log = l }
}

// Validator checks items against a schema. A Validator may be used from
// several goroutines; each call keeps its own context.
type Validator struct {
	schema       *Schema
	maxDepth     int
	strict       bool
	allowUnknown bool
	log          log.Logger
}

// NewValidator creates a validator for s.
func NewValidator(s *Schema, opts ...Option) *Validator {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxDepth <= 0 {
		o.maxDepth = DefaultMaxDepth
	}
	if o.log == nil {
		o.log = log.New(log.WithWriter(io.Discard))
	}
	allow := !o.strict
	if o.allowUnknown != nil {
		allow = *o.allowUnknown
	}
	return &Validator{
		schema:       s,
		maxDepth:     o.maxDepth,
		strict:       o.strict,
		allowUnknown: allow,
		log:          o.log,
	}
}

// Validate checks it against the schema's first declared type.
func (v *Validator) Validate(it lambda.Item) *ValidationResult {
	return v.ValidateType(it, v.schema.Root())
}

// ValidateAs checks it against the named declaration.
func (v *Validator) ValidateAs(it lambda.Item, typeName string) (*ValidationResult, error) {
	t, ok := v.schema.Lookup(typeName)
	if !ok {
		return nil, errors.Wrap(ErrUnknownType, typeName)
	}
	return v.ValidateType(it, t), nil
}

// ValidateType checks it against t.
func (v *Validator) ValidateType(it lambda.Item, t lambda.Type) *ValidationResult {
	c := &vctx{v: v}
	c.check(it, t, nil)

	v.log.With(log.F{
		"type":   typeName(t),
		"strict": v.strict,
		"errors": c.errs.n,
	}).Debug("validation finished")

	return &ValidationResult{
		Valid:      c.errs.n == 0,
		ErrorCount: c.errs.n,
		Errors:     c.errs.head,
	}
}

// vctx is the per-call validation context.
type vctx struct {
	v     *Validator
	depth int
	hops  int // references followed since the last descend
	errs  errorList
	fatal bool
}

func (c *vctx) trial() *vctx {
	return &vctx{v: c.v, depth: c.depth, hops: c.hops}
}

func (c *vctx) addf(code ErrorCode, path *PathSegment, expected lambda.Type, actual lambda.Item, format string, args ...any) {
	c.errs.add(&ValidationError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
		Expected: expected,
		Actual:   actual,
	})
}

func (c *vctx) mismatch(it lambda.Item, t lambda.Type, path *PathSegment) {
	c.addf(TypeMismatch, path, t, it, "expected %s, got %s", typeName(t), actualName(it))
}

// descend checks a nested value one level deeper.
func (c *vctx) descend(it lambda.Item, t lambda.Type, path *PathSegment) {
	if c.fatal {
		return
	}
	c.depth++
	hops := c.hops
	c.hops = 0
	defer func() { c.depth, c.hops = c.depth-1, hops }()
	if c.depth > c.v.maxDepth {
		c.addf(ConstraintViolation, path, t, it, "maximum depth %d exceeded", c.v.maxDepth)
		c.fatal = true
		return
	}
	c.check(it, t, path)
}

func (c *vctx) check(it lambda.Item, t lambda.Type, path *PathSegment) {
	if c.fatal || t == nil {
		return
	}
	switch tt := t.(type) {
	case *lambda.RefType:
		c.hops++
		defer func() { c.hops-- }()
		if c.hops > c.v.maxDepth {
			c.addf(ConstraintViolation, path, tt, it, "reference %s does not terminate", tt.Name)
			c.fatal = true
			return
		}
		c.check(it, tt.Target, path)

	case *lambda.PrimitiveType:
		if !accepts(tt.ID, it.Type()) {
			c.mismatch(it, tt, path)
		}

	case *lambda.UnionType:
		c.checkUnion(it, tt, path)

	case *lambda.OccurrenceType:
		c.checkOccurrence(it, tt, path)

	case *lambda.ArrayType:
		c.checkSequence(it, tt, tt.Length, tt.Nested, nil, path)

	case *lambda.ListType:
		c.checkSequence(it, tt, tt.Length, tt.Nested, tt.Members, path)

	case *lambda.ElementType:
		c.checkElement(it, tt, path)

	case *lambda.MapType:
		if it.Type() != lambda.TypeMap {
			c.mismatch(it, tt, path)
			return
		}
		c.checkFields(mapFields(it.Map()), tt, path, (*PathSegment).field, "field")

	default:
		if it.Type() != t.TypeID() {
			c.mismatch(it, t, path)
		}
	}
}

// accepts reports whether a value of type got satisfies primitive want,
// following the widening chain int, float, decimal, number.
func accepts(want, got lambda.TypeID) bool {
	if want == lambda.TypeAny || want == got {
		return true
	}
	isInt := got == lambda.TypeInt || got == lambda.TypeInt64
	switch want {
	case lambda.TypeInt, lambda.TypeInt64:
		return isInt
	case lambda.TypeFloat:
		return isInt
	case lambda.TypeDecimal:
		return isInt || got == lambda.TypeFloat
	case lambda.TypeNumber:
		return isInt || got == lambda.TypeFloat || got == lambda.TypeDecimal
	}
	return false
}

func (c *vctx) checkUnion(it lambda.Item, u *lambda.UnionType, path *PathSegment) {
	var best *vctx
	allShallow := true
	for _, m := range u.Members {
		trial := c.trial()
		trial.check(it, m, path)
		if trial.fatal {
			c.errs.appendList(trial.errs)
			c.fatal = true
			return
		}
		if trial.errs.n == 0 {
			return
		}
		if trial.errs.n != 1 || trial.errs.head.Code != TypeMismatch || trial.errs.head.Path != path {
			allShallow = false
		}
		if best == nil || trial.errs.n < best.errs.n {
			best = trial
		}
	}
	if best == nil {
		return
	}
	if allShallow {
		c.mismatch(it, u, path)
		return
	}
	c.errs.appendList(best.errs)
}

// checkOccurrence handles an occurrence outside a sibling run: '?' admits
// null, and '+' or '*' applied to a sequence value constrain its items.
func (c *vctx) checkOccurrence(it lambda.Item, o *lambda.OccurrenceType, path *PathSegment) {
	min, max := o.Bounds()
	if it.IsNull() && min == 0 {
		return
	}
	items, ok := sequenceItems(it)
	if !ok || max == 1 || isSequenceType(o.Operand) {
		c.check(it, o.Operand, path)
		return
	}
	if len(items) < min {
		c.addf(ConstraintViolation, path, o, it, "expected at least %d items, got %d", min, len(items))
		return
	}
	for i, x := range items {
		c.descend(x, o.Operand, path.index(i))
	}
}

func isSequenceType(t lambda.Type) bool {
	switch lambda.Resolve(t).(type) {
	case *lambda.ArrayType, *lambda.ListType:
		return true
	}
	return false
}

func sequenceItems(it lambda.Item) ([]lambda.Item, bool) {
	switch it.Type() {
	case lambda.TypeArray:
		return it.Array().Items, true
	case lambda.TypeList:
		return it.List().Items, true
	}
	return nil, false
}

func (c *vctx) checkSequence(it lambda.Item, t lambda.Type, length int, nested lambda.Type, members []lambda.Type, path *PathSegment) {
	items, ok := sequenceItems(it)
	if !ok {
		c.mismatch(it, t, path)
		return
	}
	if length >= 0 && len(items) != length {
		c.addf(ConstraintViolation, path, t, it, "expected %d items, got %d", length, len(items))
		return
	}
	if members != nil {
		c.checkRun(items, members, t, it, path)
		return
	}
	for i, x := range items {
		c.descend(x, nested, path.index(i))
	}
}

func (c *vctx) checkElement(it lambda.Item, et *lambda.ElementType, path *PathSegment) {
	if it.Type() != lambda.TypeElement {
		c.mismatch(it, et, path)
		return
	}
	e := it.Element()
	if et.Name != nil && e.Tag() != et.Name.String() {
		c.addf(TypeMismatch, path, et, it, "expected <%s>, got <%s>", et.Name.String(), e.Tag())
		return
	}

	ep := path.element(e.Tag())
	c.checkFields(attrFields(e), &et.MapType, ep, (*PathSegment).attribute, "attribute")

	children := e.Children()
	if et.ContentLength >= 0 && len(children) != et.ContentLength {
		c.addf(ConstraintViolation, ep, et, it, "expected %d children, got %d", et.ContentLength, len(children))
		return
	}
	if len(et.Content) > 0 {
		c.checkRun(children, et.Content, et, it, ep)
	}
}

// ============================================================
// Fields and attributes
// ============================================================

type field struct {
	name  string
	value lambda.Item
}

func mapFields(m *lambda.Map) []field {
	out := make([]field, 0, len(m.Data))
	for i, e := range m.Type.Entries() {
		if i < len(m.Data) {
			out = append(out, field{e.Name.String(), m.Data[i]})
		}
	}
	return out
}

func attrFields(e *lambda.Element) []field {
	attrs := e.Attrs()
	out := make([]field, 0, len(attrs))
	for i, entry := range e.Type.Entries() {
		if i < len(attrs) {
			out = append(out, field{entry.Name.String(), attrs[i]})
		}
	}
	return out
}

// fieldType splits a declared field type into its optionality and the type
// the value must satisfy. A repeated field keeps its operator so that a
// sequence value is checked item by item.
func fieldType(t lambda.Type) (optional bool, inner lambda.Type) {
	o, ok := t.(*lambda.OccurrenceType)
	if !ok {
		return false, t
	}
	if o.Op == lambda.OccurOptional {
		return true, o.Operand
	}
	min, _ := o.Bounds()
	return min == 0, o
}

// admitsNull reports whether null satisfies t.
func admitsNull(t lambda.Type) bool {
	switch tt := lambda.Resolve(t).(type) {
	case nil:
		return true
	case *lambda.PrimitiveType:
		return tt.ID == lambda.TypeNull || tt.ID == lambda.TypeAny
	case *lambda.UnionType:
		for _, m := range tt.Members {
			if admitsNull(m) {
				return true
			}
		}
	case *lambda.OccurrenceType:
		min, _ := tt.Bounds()
		return min == 0
	}
	return false
}

type segmentFunc func(*PathSegment, string) *PathSegment

// checkFields validates values in input order, then reports declared
// fields that are absent.
func (c *vctx) checkFields(fields []field, shape *lambda.MapType, path *PathSegment, seg segmentFunc, noun string) {
	present := make(map[string]bool, len(fields))
	for _, f := range fields {
		present[f.name] = true
		fp := seg(path, f.name)
		entry, _ := shape.Lookup(f.name)
		if entry == nil {
			if !c.v.allowUnknown {
				c.addf(UnknownField, fp, nil, f.value, "unknown %s %q", noun, f.name)
			}
			continue
		}
		optional, inner := fieldType(entry.Type)
		if f.value.IsNull() {
			if optional || admitsNull(inner) {
				continue
			}
			c.addf(NullValue, fp, inner, f.value, "%s %q is null, expected %s", noun, f.name, typeName(inner))
			continue
		}
		c.descend(f.value, inner, fp)
		if c.fatal {
			return
		}
	}
	for _, entry := range shape.Entries() {
		name := entry.Name.String()
		if present[name] {
			continue
		}
		optional, inner := fieldType(entry.Type)
		if optional {
			continue
		}
		c.addf(MissingField, seg(path, name), inner, lambda.Null, "missing required %s %q", noun, name)
	}
}

// ============================================================
// Sibling runs
// ============================================================

// checkRun matches items against a pattern of member types, each possibly
// carrying an occurrence operator. A full match is searched with
// backtracking; when none exists the run is walked greedily to report
// errors at the first items that do not fit.
func (c *vctx) checkRun(items []lambda.Item, patterns []lambda.Type, expected lambda.Type, owner lambda.Item, path *PathSegment) {
	m := &runMatcher{
		c:        c,
		items:    items,
		patterns: patterns,
		fits:     make(map[[2]int]bool),
		done:     make(map[[2]int]bool),
	}
	if m.match(0, 0) {
		return
	}

	before := c.errs.n
	vi := 0
	for pi, p := range patterns {
		min, max, operand := runBounds(p)
		n := 0
		for (max < 0 || n < max) && vi < len(items) && !c.fatal {
			if !m.fit(vi, pi) && n >= min && !shallowFit(items[vi], operand) {
				break
			}
			if !m.fit(vi, pi) {
				c.descend(items[vi], operand, path.index(vi))
			}
			vi++
			n++
		}
		if n < min && !c.fatal {
			c.addf(ConstraintViolation, path, expected, owner,
				"expected at least %d of %s, got %d", min, typeName(operand), n)
		}
	}
	if vi < len(items) && !c.fatal {
		c.addf(ConstraintViolation, path.index(vi), expected, items[vi],
			"unexpected %s after %d matching items", actualName(items[vi]), vi)
	}
	if c.errs.n == before && !c.fatal {
		c.addf(ConstraintViolation, path, expected, owner, "content does not match %s", typeName(expected))
	}
}

func runBounds(t lambda.Type) (min, max int, operand lambda.Type) {
	if o, ok := t.(*lambda.OccurrenceType); ok {
		min, max = o.Bounds()
		return min, max, o.Operand
	}
	return 1, 1, t
}

// shallowFit reports whether it has the outer shape of t: the same kind of
// value and, for elements, the same tag.
func shallowFit(it lambda.Item, t lambda.Type) bool {
	switch tt := lambda.Resolve(t).(type) {
	case nil:
		return true
	case *lambda.PrimitiveType:
		return accepts(tt.ID, it.Type())
	case *lambda.UnionType:
		for _, m := range tt.Members {
			if shallowFit(it, m) {
				return true
			}
		}
		return false
	case *lambda.OccurrenceType:
		return shallowFit(it, tt.Operand)
	case *lambda.ArrayType, *lambda.ListType:
		_, ok := sequenceItems(it)
		return ok
	case *lambda.ElementType:
		return it.Type() == lambda.TypeElement && (tt.Name == nil || tt.Name.String() == it.Element().Tag())
	}
	return it.Type() == t.TypeID()
}

type runMatcher struct {
	c        *vctx
	items    []lambda.Item
	patterns []lambda.Type
	fits     map[[2]int]bool
	done     map[[2]int]bool
}

// fit reports whether item vi satisfies pattern pi's operand.
func (m *runMatcher) fit(vi, pi int) bool {
	key := [2]int{vi, pi}
	if ok, seen := m.fits[key]; seen {
		return ok
	}
	_, _, operand := runBounds(m.patterns[pi])
	trial := m.c.trial()
	trial.descend(m.items[vi], operand, nil)
	ok := trial.errs.n == 0 && !trial.fatal
	m.fits[key] = ok
	return ok
}

func (m *runMatcher) match(pi, vi int) bool {
	if pi == len(m.patterns) {
		return vi == len(m.items)
	}
	key := [2]int{pi, vi}
	if ok, seen := m.done[key]; seen {
		return ok
	}
	min, max, _ := runBounds(m.patterns[pi])
	n := 0
	for (max < 0 || n < max) && vi+n < len(m.items) && m.fit(vi+n, pi) {
		n++
	}
	ok := false
	for k := n; k >= min; k-- {
		if m.match(pi+1, vi+k) {
			ok = true
			break
		}
	}
	m.done[key] = ok
	return ok
}

// ============================================================
// Names
// ============================================================

func typeName(t lambda.Type) string {
	if t == nil {
		return "any"
	}
	return t.String()
}

func actualName(it lambda.Item) string {
	switch it.Type() {
	case lambda.TypeInt64:
		return lambda.TypeInt.String()
	case lambda.TypeElement:
		return "<" + it.Element().Tag() + ">"
	}
	return it.Type().String()
}

// FormatErrors renders one line per error as "CODE path: message".
func FormatErrors(r *ValidationResult) string {
	var sb strings.Builder
	for e := r.Errors; e != nil; e = e.Next {
		sb.WriteString(e.Error())
		sb.WriteByte('\n')
	}
	return sb.String()
}
