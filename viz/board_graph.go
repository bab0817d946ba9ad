// ABOUTME: Board relationship graph generation via graphviz
// ABOUTME: Renders workspaces, boards, and cross-board links as DOT with health-colored nodes
package viz

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/pulsemap/pulsemap/db"
	"github.com/pulsemap/pulsemap/models"
)

type GraphGenerator struct {
	db *sql.DB
}

func NewGraphGenerator(database *sql.DB) *GraphGenerator {
	return &GraphGenerator{db: database}
}

// GenerateBoardGraph renders the mirrored org as DOT. A nil workspaceID draws
// every workspace; otherwise only the named workspace's boards, plus any
// external boards they link to.
func (g *GraphGenerator) GenerateBoardGraph(workspaceID *string) (string, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.LRRank)

	workspaces, boards, err := g.scopeEntities(workspaceID)
	if err != nil {
		return "", err
	}

	now := time.Now()

	workspaceNodes := make(map[string]*cgraph.Node)
	for _, ws := range workspaces {
		node, err := graph.CreateNodeByName(fmt.Sprintf("workspace_%s", ws.ID))
		if err != nil {
			return "", fmt.Errorf("failed to create workspace node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n(workspace)", ws.Name))
		node.SetShape("folder")
		node.SetStyle("filled")
		node.SetFillColor("lightblue")
		workspaceNodes[ws.ID] = node
	}

	boardNodes := make(map[string]*cgraph.Node)
	for i := range boards {
		node, err := g.addBoardNode(graph, &boards[i], now)
		if err != nil {
			return "", err
		}
		boardNodes[boards[i].ID] = node

		if boards[i].WorkspaceID != nil {
			if wsNode, ok := workspaceNodes[*boards[i].WorkspaceID]; ok {
				edge, err := graph.CreateEdgeByName("contains", wsNode, node)
				if err != nil {
					return "", fmt.Errorf("failed to create containment edge: %w", err)
				}
				edge.SetStyle("dashed")
			}
		}
	}

	relationships, err := g.scopeRelationships(workspaceID, boards)
	if err != nil {
		return "", err
	}

	for _, rel := range relationships {
		source, ok := boardNodes[rel.SourceBoardID]
		if !ok {
			continue
		}
		target, ok := boardNodes[rel.TargetBoardID]
		if !ok {
			// Linked board outside the requested workspace. Pull it in so
			// cross-workspace edges still show up.
			external, err := db.GetBoard(g.db, rel.TargetBoardID)
			if err != nil {
				return "", fmt.Errorf("failed to fetch linked board: %w", err)
			}
			if external == nil {
				continue
			}
			target, err = g.addBoardNode(graph, external, now)
			if err != nil {
				return "", err
			}
			boardNodes[external.ID] = target
		}

		edge, err := graph.CreateEdgeByName(rel.RelationType, source, target)
		if err != nil {
			return "", fmt.Errorf("failed to create relationship edge: %w", err)
		}
		edge.SetLabel(rel.RelationType)
		switch rel.RelationType {
		case models.RelationTypeMirror:
			edge.SetStyle("dotted")
		case models.RelationTypeDependency:
			edge.SetDir("both")
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}

	return buf.String(), nil
}

func (g *GraphGenerator) addBoardNode(graph *cgraph.Graph, b *models.Board, now time.Time) (*cgraph.Node, error) {
	node, err := graph.CreateNodeByName(fmt.Sprintf("board_%s", b.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to create board node: %w", err)
	}

	label := fmt.Sprintf("%s\n%d items", b.Name, b.ItemCount)
	if b.State != models.BoardStateActive {
		label += fmt.Sprintf("\n(%s)", b.State)
	}
	node.SetLabel(label)
	node.SetShape("box")
	node.SetStyle("filled")
	node.SetFillColor(healthFillColor(models.ClassifyBoardHealth(b, now)))
	return node, nil
}

func (g *GraphGenerator) scopeEntities(workspaceID *string) ([]models.Workspace, []models.Board, error) {
	if workspaceID == nil {
		workspaces, err := db.GetWorkspaces(g.db)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch workspaces: %w", err)
		}
		boards, err := db.GetBoards(g.db)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch boards: %w", err)
		}
		return workspaces, boards, nil
	}

	ws, err := db.GetWorkspace(g.db, *workspaceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch workspace: %w", err)
	}
	if ws == nil {
		return nil, nil, fmt.Errorf("workspace %s not found", *workspaceID)
	}
	boards, err := db.GetBoardsByWorkspace(g.db, ws.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch workspace boards: %w", err)
	}
	return []models.Workspace{*ws}, boards, nil
}

func (g *GraphGenerator) scopeRelationships(workspaceID *string, boards []models.Board) ([]models.BoardRelationship, error) {
	if workspaceID == nil {
		relationships, err := db.GetRelationships(g.db)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch relationships: %w", err)
		}
		return relationships, nil
	}

	seen := make(map[string]bool)
	var scoped []models.BoardRelationship
	for i := range boards {
		rels, err := db.GetRelationshipsForBoard(g.db, boards[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch board relationships: %w", err)
		}
		for _, rel := range rels {
			if seen[rel.ID] {
				continue
			}
			seen[rel.ID] = true
			scoped = append(scoped, rel)
		}
	}
	return scoped, nil
}

func healthFillColor(status string) string {
	switch status {
	case models.HealthHealthy:
		return "palegreen"
	case models.HealthWarning:
		return "khaki"
	case models.HealthInactive:
		return "lightgray"
	case models.HealthAbandoned:
		return "lightcoral"
	default:
		return "white"
	}
}
