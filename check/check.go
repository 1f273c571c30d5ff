package check

import (
	"fmt"
	"strings"

	"github.com/BaSui01/aicrew/types"
)

// Identity is the minimal view of an employee a check may consult.
type Identity interface {
	Name() string
}

// Check is a capability predicate over a (task, employee) pair. Matches must
// be stateless, side-effect free, and deterministic for a given input.
type Check interface {
	Matches(task types.Task, who Identity) bool
}

// defaultFields are the task fields keyword and length checks read when no
// explicit field list is configured.
var defaultFields = []string{"title", "description", "content"}

// Assignment matches when the task's assignee equals the employee's name,
// case-insensitively and ignoring surrounding whitespace.
type Assignment struct{}

// NewAssignment creates an assignment check.
func NewAssignment() Assignment { return Assignment{} }

func (Assignment) Matches(task types.Task, who Identity) bool {
	return task.IsAssignedTo(who.Name())
}

// Keyword matches when any configured keyword appears as a substring of the
// concatenated, lower-cased task fields.
type Keyword struct {
	keywords []string
	fields   []string
}

// NewKeyword builds a keyword check. The keyword list must be non-empty; an
// empty list would silently match nothing, so it is refused here rather than
// at evaluation time. Fields default to title, description, and content.
func NewKeyword(keywords []string, fields ...string) (Keyword, error) {
	if len(keywords) == 0 {
		return Keyword{}, types.NewError(types.ErrInvalidCheck, "keyword check requires at least one keyword")
	}
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			return Keyword{}, types.NewError(types.ErrInvalidCheck, "keyword check: empty keyword")
		}
		lowered = append(lowered, kw)
	}
	if len(fields) == 0 {
		fields = defaultFields
	}
	return Keyword{keywords: lowered, fields: fields}, nil
}

// MustKeyword is NewKeyword for statically known configuration; it panics on
// invalid input.
func MustKeyword(keywords []string, fields ...string) Keyword {
	k, err := NewKeyword(keywords, fields...)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Keyword) Matches(task types.Task, _ Identity) bool {
	text := strings.ToLower(joinFields(task, k.fields))
	for _, kw := range k.keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Keywords returns the configured (lower-cased) keywords.
func (k Keyword) Keywords() []string { return k.keywords }

// Status matches when the task status is in the allowed set.
type Status struct {
	allowed map[types.TaskStatus]struct{}
}

// NewStatus builds a status check over a non-empty set of known statuses.
func NewStatus(statuses ...types.TaskStatus) (Status, error) {
	if len(statuses) == 0 {
		return Status{}, types.NewError(types.ErrInvalidCheck, "status check requires at least one status")
	}
	allowed := make(map[types.TaskStatus]struct{}, len(statuses))
	for _, s := range statuses {
		if !s.Valid() {
			return Status{}, types.NewError(types.ErrInvalidCheck, "status check: unknown status "+string(s))
		}
		allowed[s] = struct{}{}
	}
	return Status{allowed: allowed}, nil
}

func (s Status) Matches(task types.Task, _ Identity) bool {
	_, ok := s.allowed[task.Status]
	return ok
}

// ContentLength matches when the concatenated checked fields reach a minimum
// length.
type ContentLength struct {
	min    int
	fields []string
}

// NewContentLength builds a length check; min must be positive.
func NewContentLength(min int, fields ...string) (ContentLength, error) {
	if min <= 0 {
		return ContentLength{}, types.NewError(types.ErrInvalidCheck,
			fmt.Sprintf("content length check: minimum must be positive, got %d", min))
	}
	if len(fields) == 0 {
		fields = defaultFields
	}
	return ContentLength{min: min, fields: fields}, nil
}

func (c ContentLength) Matches(task types.Task, _ Identity) bool {
	return len(strings.TrimSpace(joinFields(task, c.fields))) >= c.min
}

// Op selects how a composite combines its children.
type Op string

const (
	OpAnd Op = "AND"
	OpOr  Op = "OR"
)

// Composite combines child checks with AND/OR. It is itself a Check, so
// composites nest into arbitrary trees.
type Composite struct {
	children []Check
	op       Op
}

// NewComposite builds a composite check. The operator must be AND or OR and
// the child list must be non-empty; an empty AND would be vacuously true,
// which is exactly the kind of silent misconfiguration this refuses.
func NewComposite(op Op, children ...Check) (Composite, error) {
	switch op {
	case OpAnd, OpOr:
	default:
		return Composite{}, types.NewError(types.ErrInvalidCheck, "composite check: unsupported operator "+string(op))
	}
	if len(children) == 0 {
		return Composite{}, types.NewError(types.ErrInvalidCheck, "composite check requires at least one child")
	}
	for i, child := range children {
		if child == nil {
			return Composite{}, types.NewError(types.ErrInvalidCheck,
				fmt.Sprintf("composite check: child %d is nil", i))
		}
	}
	return Composite{children: children, op: op}, nil
}

// MustComposite is NewComposite for statically known configuration; it
// panics on invalid input.
func MustComposite(op Op, children ...Check) Composite {
	c, err := NewComposite(op, children...)
	if err != nil {
		panic(err)
	}
	return c
}

// Matches evaluates the tree depth-first: AND stops at the first false
// child, OR at the first true one.
func (c Composite) Matches(task types.Task, who Identity) bool {
	switch c.op {
	case OpAnd:
		for _, child := range c.children {
			if !child.Matches(task, who) {
				return false
			}
		}
		return true
	case OpOr:
		for _, child := range c.children {
			if child.Matches(task, who) {
				return true
			}
		}
		return false
	}
	return false
}

// Children returns the child checks, in evaluation order.
func (c Composite) Children() []Check { return c.children }

// Operator returns the combining operator.
func (c Composite) Operator() Op { return c.op }

func joinFields(task types.Task, fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, task.Field(f))
	}
	return strings.Join(parts, " ")
}
