package check

import (
	"fmt"
	"strings"

	"github.com/BaSui01/aicrew/types"
)

// Explain describes why a check did not match a task, for operator-facing
// logs. For a matching check it returns "matched".
func Explain(c Check, task types.Task, who Identity) string {
	if c.Matches(task, who) {
		return "matched"
	}

	switch v := c.(type) {
	case Assignment:
		return fmt.Sprintf("task not assigned to %s (assignee: %q)", who.Name(), task.Assignee)
	case Keyword:
		return fmt.Sprintf("none of the keywords %v found in task text", v.keywords)
	case Status:
		allowed := make([]string, 0, len(v.allowed))
		for s := range v.allowed {
			allowed = append(allowed, string(s))
		}
		return fmt.Sprintf("status %q not in allowed set %v", task.Status, allowed)
	case ContentLength:
		got := len(strings.TrimSpace(joinFields(task, v.fields)))
		return fmt.Sprintf("content too short: %d chars < %d required", got, v.min)
	case Composite:
		var failures []string
		for _, child := range v.children {
			if !child.Matches(task, who) {
				failures = append(failures, Explain(child, task, who))
			}
		}
		return fmt.Sprintf("composite %s failed: [%s]", v.op, strings.Join(failures, "; "))
	default:
		return fmt.Sprintf("check %T did not match", c)
	}
}
