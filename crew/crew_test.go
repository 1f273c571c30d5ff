package crew

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/aicrew/agent"
	"github.com/BaSui01/aicrew/testutil"
	"github.com/BaSui01/aicrew/types"
	"github.com/BaSui01/aicrew/workflow"
)

func defaultGraphs(t *testing.T) []*workflow.Graph {
	t.Helper()
	steps := workflow.NewSteps(
		testutil.NewScriptedProvider(),
		testutil.NewMemStore(),
		&testutil.StaticSearcher{},
		nil,
	)
	graphs, err := workflow.DefaultGraphs(steps)
	require.NoError(t, err)
	return graphs
}

func TestBuildRegistry(t *testing.T) {
	registry, err := BuildRegistry(defaultGraphs(t), nil)
	require.NoError(t, err)

	require.Len(t, registry.All(), 3)
	for _, name := range []string{"EngineeringManager", "ResearchAgent", "DocSpecialist"} {
		e, ok := registry.ByName(name)
		require.True(t, ok, name)
		assert.True(t, e.Active())
		assert.NotEmpty(t, e.Persona())
	}

	mgr, _ := registry.ByName("EngineeringManager")
	assert.Equal(t, []string{workflow.KindSpecification}, mgr.Kinds())
}

func TestCrew_Routing(t *testing.T) {
	registry, err := BuildRegistry(defaultGraphs(t), nil)
	require.NoError(t, err)
	validator := agent.NewValidator(registry, nil)

	tests := []struct {
		name     string
		task     types.Task
		wantKind string
		wantRej  types.RejectionReason
	}{
		{
			name: "specification request routes to the manager",
			task: types.Task{
				ID:          "T1",
				Title:       "Draft the architecture specification",
				Description: "We need a technical approach for the new ingestion pipeline.",
				Assignee:    "EngineeringManager",
				Status:      types.StatusPending,
			},
			wantKind: workflow.KindSpecification,
		},
		{
			name: "research agent takes any substantial assignment",
			task: types.Task{
				ID:          "T2",
				Title:       "Compare message brokers",
				Description: "Evaluate throughput and operational cost of the main options.",
				Assignee:    "ResearchAgent",
				Status:      types.StatusPending,
			},
			wantKind: workflow.KindResearch,
		},
		{
			name: "code in the task routes to documentation",
			task: types.Task{
				ID:          "T3",
				Title:       "Document the retry helper",
				Description: "Explain this function:\n```\nfunc retry() {}\n```",
				Assignee:    "DocSpecialist",
				Status:      types.StatusPending,
			},
			wantKind: workflow.KindDocumentation,
		},
		{
			name: "manager rejects tasks outside its keywords",
			task: types.Task{
				ID:          "T4",
				Title:       "Order new laptops",
				Description: "Procurement request for the hardware refresh this quarter.",
				Assignee:    "EngineeringManager",
				Status:      types.StatusPending,
			},
			wantRej: types.RejectNoCapabilityMatch,
		},
		{
			name: "thin tasks fail the content length gate",
			task: types.Task{
				ID:       "T5",
				Title:    "spec",
				Assignee: "EngineeringManager",
				Status:   types.StatusPending,
			},
			wantRej: types.RejectNoCapabilityMatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, rej := validator.Validate(tt.task)
			if tt.wantRej != "" {
				require.NotNil(t, rej)
				assert.Equal(t, tt.wantRej, rej.Reason)
				return
			}
			require.Nil(t, rej)
			assert.Equal(t, tt.wantKind, route.Kind)
		})
	}
}

func TestBuildRegistry_MissingGraph(t *testing.T) {
	_, err := BuildRegistry(nil, nil)
	require.Error(t, err)
}
