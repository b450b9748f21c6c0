package coach

import "fmt"

const (
	NodeType   = "roadmapNode"
	EdgeType   = "smoothstep"
	EdgeStroke = "#60a5fa"
	MarkerType = "arrowclosed"

	nodeX           = 300
	nodeWidth       = 300
	verticalSpacing = 160
	paddingTop      = 24
	markerSize      = 18
	strokeWidth     = 2
)

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type NodeStyle struct {
	Width int `json:"width"`
}

type FlowNode struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Position  Position    `json:"position"`
	Data      RoadmapNode `json:"data"`
	Style     NodeStyle   `json:"style"`
	Draggable bool        `json:"draggable"`
}

type EdgeStyle struct {
	Stroke         string `json:"stroke"`
	StrokeWidth    int    `json:"strokeWidth"`
	StrokeLinecap  string `json:"strokeLinecap"`
	StrokeLinejoin string `json:"strokeLinejoin"`
}

type EdgeMarker struct {
	Type   string `json:"type"`
	Color  string `json:"color"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type FlowEdge struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	Target    string     `json:"target"`
	Type      string     `json:"type"`
	Style     EdgeStyle  `json:"style"`
	MarkerEnd EdgeMarker `json:"markerEnd"`
	Animated  bool       `json:"animated"`
}

// Graph is a roadmap laid out as a vertical path.
type Graph struct {
	Nodes []FlowNode `json:"nodes"`
	Edges []FlowEdge `json:"edges"`
}

// NodePosition is the layout position of the node at index.
func NodePosition(index int) Position {
	return Position{X: nodeX, Y: index*verticalSpacing + paddingTop}
}

// ProjectRoadmap lays the nodes out in order and links each node to the
// next one. N nodes always produce max(N-1, 0) edges.
func ProjectRoadmap(r Roadmap) Graph {
	g := Graph{
		Nodes: make([]FlowNode, 0, len(r.Nodes)),
		Edges: make([]FlowEdge, 0, max(len(r.Nodes)-1, 0)),
	}

	for i, node := range r.Nodes {
		g.Nodes = append(g.Nodes, FlowNode{
			ID:        node.ID,
			Type:      NodeType,
			Position:  NodePosition(i),
			Data:      node,
			Style:     NodeStyle{Width: nodeWidth},
			Draggable: true,
		})
	}

	for i := 0; i+1 < len(g.Nodes); i++ {
		src, dst := g.Nodes[i].ID, g.Nodes[i+1].ID
		g.Edges = append(g.Edges, FlowEdge{
			ID:     fmt.Sprintf("e%s-%s", src, dst),
			Source: src,
			Target: dst,
			Type:   EdgeType,
			Style: EdgeStyle{
				Stroke:         EdgeStroke,
				StrokeWidth:    strokeWidth,
				StrokeLinecap:  "round",
				StrokeLinejoin: "round",
			},
			MarkerEnd: EdgeMarker{Type: MarkerType, Color: EdgeStroke, Width: markerSize, Height: markerSize},
		})
	}

	return g
}
