package convo

import (
	"crmconsole/backend/internal/media"
	"crmconsole/backend/internal/models"
)

// ImageGroup collapses a run of consecutive automation images into one
// visual unit. Anchor is the first message of the run; Images holds the
// whole run in original order, anchor included.
type ImageGroup struct {
	Anchor models.Message   `json:"anchor"`
	Images []models.Message `json:"images"`
}

// RenderNode is one entry of the render-ready sequence: exactly one of
// Message or Group is set.
type RenderNode struct {
	Message *models.Message `json:"message,omitempty"`
	Group   *ImageGroup     `json:"group,omitempty"`
}

// NodesFromMessages wraps raw messages into ungrouped render nodes.
func NodesFromMessages(rows []models.Message) []RenderNode {
	nodes := make([]RenderNode, len(rows))
	for i := range rows {
		nodes[i] = RenderNode{Message: &rows[i]}
	}
	return nodes
}

// groupable reports whether a node is a raw automation photo-batch image.
// Grouping is defined over raw messages only; existing groups never regroup,
// which makes GroupImages idempotent.
func groupable(n RenderNode) bool {
	if n.Message == nil {
		return false
	}
	m := n.Message
	return m.Kind == models.KindAI && m.Tags.Fotos &&
		media.Classify(m.Content, m.Tags) == media.KindImage
}

// GroupImages transforms a render sequence so that every maximal run of two
// or more consecutive automation images becomes a single ImageGroup node.
// Runs of length one and all other nodes pass through unchanged; overall
// order is preserved.
func GroupImages(nodes []RenderNode) []RenderNode {
	out := make([]RenderNode, 0, len(nodes))
	for i := 0; i < len(nodes); {
		if !groupable(nodes[i]) {
			out = append(out, nodes[i])
			i++
			continue
		}
		j := i
		for j < len(nodes) && groupable(nodes[j]) {
			j++
		}
		if j-i == 1 {
			out = append(out, nodes[i])
		} else {
			run := make([]models.Message, 0, j-i)
			for k := i; k < j; k++ {
				run = append(run, *nodes[k].Message)
			}
			out = append(out, RenderNode{Group: &ImageGroup{Anchor: run[0], Images: run}})
		}
		i = j
	}
	return out
}
