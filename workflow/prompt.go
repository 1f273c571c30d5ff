package workflow

import (
	"fmt"
	"strings"
)

// compositePrompt assembles the full model prompt: persona, kind-specific
// action instructions, task details, typed context, and recalled memories.
func compositePrompt(kind string, st *State) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(st.Actor.Persona()))
	b.WriteString("\n\n")
	b.WriteString(actionPrompt(kind))
	b.WriteString("\n\n## Task Details\n")
	fmt.Fprintf(&b, "Title: %s\n", st.Task.Title)
	fmt.Fprintf(&b, "Description: %s\n", st.Task.Description)
	fmt.Fprintf(&b, "Content: %s\n", st.Task.Content)
	if st.Task.SourceURL != "" {
		fmt.Fprintf(&b, "Source: %s\n", st.Task.SourceURL)
	}

	if kind == KindResearch && len(st.Scope) > 0 {
		b.WriteString("\n## Research Scope\nFocus on these specific questions/topics:\n")
		for _, q := range st.Scope {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}
	if kind == KindResearch && len(st.Sources) > 0 {
		b.WriteString("\n## External Sources\n")
		for _, src := range st.Sources {
			fmt.Fprintf(&b, "- %s\n", src)
		}
	}
	if kind == KindDocumentation && st.HasCode {
		fmt.Fprintf(&b, "\n## Code Analysis\nFound %d code blocks to document.\n", len(st.CodeBlocks))
	}

	if len(st.Memories) > 0 {
		b.WriteString("\n## Relevant Memories\nThese are relevant memories from your previous work:\n")
		for _, m := range st.Memories {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}

	b.WriteString("\nProvide your response:")
	return b.String()
}

func actionPrompt(kind string) string {
	switch kind {
	case KindSpecification:
		return strings.TrimSpace(`
Create a detailed technical specification including:
- Clear problem statement and objectives
- Functional requirements (what the system should do)
- Non-functional requirements (performance, security, scalability)
- Technical approach and architecture overview
- Implementation milestones and timeline
- Success criteria and acceptance criteria
- Risk assessment and mitigation strategies

Format your response as a structured document with clear sections.`)
	case KindResearch:
		return strings.TrimSpace(`
Conduct thorough research and provide:
- Executive summary of key findings
- Detailed analysis of the research topic
- Multiple perspectives and sources of information
- Data and evidence to support conclusions
- Actionable recommendations based on findings
- Proper citations and references
- Implications and next steps

Be comprehensive but focus on actionable insights.`)
	case KindDocumentation:
		return strings.TrimSpace(`
Create comprehensive technical documentation including:
- Clear overview of what the code does
- Detailed explanation of key functions and classes
- API documentation with parameters and return values
- Usage examples and code snippets
- Architecture overview and design patterns
- Installation and setup instructions (if applicable)
- Troubleshooting and common issues

Write for developers who need to understand, use, or maintain this code.`)
	default:
		return "Analyze and respond to the task appropriately with detailed, helpful information."
	}
}
