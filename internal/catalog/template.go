package catalog

import (
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/idgen"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

// Layout of the seeded pipeline.
const (
	templateOriginX = 100.0
	templateOriginY = 200.0
	templateSpacing = 250.0
)

// feedbackStyle is the dashed treatment used for loop-back edges.
func feedbackStyle() *model.EdgeStyle {
	return &model.EdgeStyle{Stroke: "muted", StrokeWidth: 1.5, StrokeDasharray: "5 5"}
}

// DefaultCanvasData returns the graph every new canvas is seeded with: the six
// pipeline stages left to right, five forward edges and two dashed feedback
// edges. Each call returns fresh node and edge ids.
func DefaultCanvasData() model.CanvasData {
	nodes := make([]model.Node, len(PipelineStages))
	ids := make(map[string]string, len(PipelineStages))
	for i, stageID := range PipelineStages {
		id := idgen.NodeID()
		ids[stageID] = id
		nodes[i] = model.Node{
			ID:       id,
			Type:     model.NodeTypeOrg,
			Position: model.Position{X: templateOriginX + float64(i)*templateSpacing, Y: templateOriginY},
			Data:     model.NodeData{ArtifactID: stageID},
		}
	}

	edges := make([]model.Edge, 0, len(PipelineStages)+1)
	for i := 0; i+1 < len(PipelineStages); i++ {
		edges = append(edges, model.Edge{
			ID:        idgen.EdgeID(),
			Source:    ids[PipelineStages[i]],
			Target:    ids[PipelineStages[i+1]],
			Animated:  true,
			MarkerEnd: &model.Marker{Type: model.MarkerArrowClosed},
		})
	}
	edges = append(edges,
		model.Edge{
			ID:        idgen.EdgeID(),
			Source:    ids[StageStewardship],
			Target:    ids[StageCultivation],
			Label:     "Re-engage",
			Style:     feedbackStyle(),
			MarkerEnd: &model.Marker{Type: model.MarkerArrowClosed},
		},
		model.Edge{
			ID:        idgen.EdgeID(),
			Source:    ids[StageSolicitation],
			Target:    ids[StageCultivation],
			Label:     "Declined",
			Style:     feedbackStyle(),
			MarkerEnd: &model.Marker{Type: model.MarkerArrowClosed},
		},
	)

	return model.CanvasData{
		Nodes:    nodes,
		Edges:    edges,
		Viewport: model.DefaultViewport,
	}
}
