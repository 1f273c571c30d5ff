package crew

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/aicrew/agent"
	"github.com/BaSui01/aicrew/check"
	"github.com/BaSui01/aicrew/workflow"
)

const engineeringManagerPersona = `You are a Senior Engineering Manager with 10+ years of experience leading technical teams.
You excel at breaking down complex problems into clear, actionable specifications.
You consider scalability, maintainability, and team capabilities in your planning.
You communicate technical concepts clearly to both technical and non-technical stakeholders.
You always provide structured, comprehensive specifications that teams can execute on.`

const researchAgentPersona = `You are a Research Specialist with expertise in gathering and analyzing information across various domains.
You excel at finding credible sources, synthesizing complex information, and identifying key insights.
You present findings objectively with proper analysis and actionable recommendations.
You stay current with industry trends and emerging technologies.
You always provide comprehensive research with multiple perspectives and evidence-based conclusions.`

const docSpecialistPersona = `You are a Technical Documentation Specialist who creates clear, comprehensive documentation.
You excel at explaining complex code and systems in simple, understandable terms.
You create well-structured documentation that serves developers at all skill levels.
You always include practical examples and clear explanations of functionality.
When appropriate, you suggest where visual diagrams would enhance understanding.`

var specificationKeywords = []string{
	"specification", "spec", "requirements", "architecture",
	"design", "plan", "roadmap", "technical approach", "solution design",
}

var documentationKeywords = []string{
	"documentation", "document", "doc", "readme", "api docs",
	"code", "python", "go", "```", "function", "class", "module",
}

// graphFor picks the named graph out of the compiled set.
func graphFor(graphs []*workflow.Graph, kind string) (*workflow.Graph, error) {
	for _, g := range graphs {
		if g.Kind() == kind {
			return g, nil
		}
	}
	return nil, fmt.Errorf("crew: no compiled graph for kind %q", kind)
}

// NewEngineeringManager builds the specification-writing employee.
func NewEngineeringManager(graphs []*workflow.Graph, logger *zap.Logger) (*agent.Employee, error) {
	e, err := agent.NewEmployee("eng_mgr_001", "EngineeringManager", engineeringManagerPersona, logger)
	if err != nil {
		return nil, err
	}
	g, err := graphFor(graphs, workflow.KindSpecification)
	if err != nil {
		return nil, err
	}
	length, err := check.NewContentLength(20)
	if err != nil {
		return nil, err
	}
	reaction, err := check.NewComposite(check.OpAnd,
		check.NewAssignment(),
		check.MustKeyword(specificationKeywords),
		length,
	)
	if err != nil {
		return nil, err
	}
	if err := e.AddReaction(reaction, workflow.KindSpecification, 10); err != nil {
		return nil, err
	}
	e.BindWorkflow(g)
	return e, nil
}

// NewResearchAgent builds the investigation employee. It reacts to any
// sufficiently fleshed-out assignment, so it doubles as the crew's
// generalist.
func NewResearchAgent(graphs []*workflow.Graph, logger *zap.Logger) (*agent.Employee, error) {
	e, err := agent.NewEmployee("research_001", "ResearchAgent", researchAgentPersona, logger)
	if err != nil {
		return nil, err
	}
	g, err := graphFor(graphs, workflow.KindResearch)
	if err != nil {
		return nil, err
	}
	length, err := check.NewContentLength(15)
	if err != nil {
		return nil, err
	}
	reaction, err := check.NewComposite(check.OpAnd,
		check.NewAssignment(),
		length,
	)
	if err != nil {
		return nil, err
	}
	if err := e.AddReaction(reaction, workflow.KindResearch, 10); err != nil {
		return nil, err
	}
	e.BindWorkflow(g)
	return e, nil
}

// NewDocSpecialist builds the documentation employee.
func NewDocSpecialist(graphs []*workflow.Graph, logger *zap.Logger) (*agent.Employee, error) {
	e, err := agent.NewEmployee("doc_spec_001", "DocSpecialist", docSpecialistPersona, logger)
	if err != nil {
		return nil, err
	}
	g, err := graphFor(graphs, workflow.KindDocumentation)
	if err != nil {
		return nil, err
	}
	length, err := check.NewContentLength(10)
	if err != nil {
		return nil, err
	}
	reaction, err := check.NewComposite(check.OpAnd,
		check.NewAssignment(),
		check.MustKeyword(documentationKeywords),
		length,
	)
	if err != nil {
		return nil, err
	}
	if err := e.AddReaction(reaction, workflow.KindDocumentation, 10); err != nil {
		return nil, err
	}
	e.BindWorkflow(g)
	return e, nil
}

// BuildRegistry creates the default crew and registers every employee.
func BuildRegistry(graphs []*workflow.Graph, logger *zap.Logger) (*agent.Registry, error) {
	registry := agent.NewRegistry(logger)

	builders := []func([]*workflow.Graph, *zap.Logger) (*agent.Employee, error){
		NewEngineeringManager,
		NewResearchAgent,
		NewDocSpecialist,
	}
	for _, build := range builders {
		e, err := build(graphs, logger)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(e); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
