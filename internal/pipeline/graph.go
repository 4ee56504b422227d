package pipeline

import (
	"fmt"
	"strings"

	"github.com/ppiankov/satyamitra/internal/model"
)

// Node names a state of the verification state machine
type Node string

// Nodes in execution order
const (
	NodeStart        Node = "start"
	NodePreProcessor Node = "pre_processor"
	NodeDBAnalyst    Node = "db_analyst"
	NodeResearcher   Node = "researcher"
	NodeSkeptic      Node = "skeptic"
	NodeReporter     Node = "reporter"
	NodeEnd          Node = "end"
)

// maxTransitions bounds a single run
const maxTransitions = 16

var statusText = map[Node]string{
	NodeStart:        "🎯 Initiating Agent Workflow...",
	NodePreProcessor: "🧠 PreProcessor Agent is pre-processing the claim...",
	NodeDBAnalyst:    "💾 DB Analyst is checking internal archives (MCP)...",
	NodeResearcher:   "🕵️ Researcher Agent is researching the claim...",
	NodeSkeptic:      "⚖️ Skeptic Agent is evaluating the evidence quality...",
	NodeReporter:     "📝 Reporter Agent is drafting final report...",
	NodeEnd:          "Agent Workflow complete...",
}

// Status returns the progress text shown while n runs
func (n Node) Status() string {
	if s, ok := statusText[n]; ok {
		return s
	}
	return "Processing: " + string(n)
}

type transition struct {
	from  Node
	to    Node
	label string
	when  func(model.VerificationState) bool
}

func always(model.VerificationState) bool { return true }

// transitions is evaluated top to bottom; the first matching edge from a node wins
var transitions = []transition{
	{NodeStart, NodePreProcessor, "", always},
	{NodePreProcessor, NodeDBAnalyst, "url", func(st model.VerificationState) bool { return st.InputType == model.InputURL }},
	{NodePreProcessor, NodeResearcher, "text, image", always},
	{NodeDBAnalyst, NodeReporter, "record found", func(st model.VerificationState) bool { return st.DomainStatus != nil }},
	{NodeDBAnalyst, NodeResearcher, "no record", always},
	{NodeResearcher, NodeSkeptic, "", always},
	{NodeSkeptic, NodeReporter, "approved", func(st model.VerificationState) bool { return st.IsVerified }},
	{NodeSkeptic, NodeResearcher, "rejected", always},
	{NodeReporter, NodeEnd, "", always},
}

// next returns the node following from for st
func next(from Node, st model.VerificationState) (Node, error) {
	for _, t := range transitions {
		if t.from == from && t.when(st) {
			return t.to, nil
		}
	}
	return "", fmt.Errorf("no transition from %q", from)
}

// Describe renders the state machine in Graphviz DOT
func Describe() string {
	var b strings.Builder
	b.WriteString("digraph satyamitra {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  node [shape=box, style=rounded];\n")
	for _, n := range []Node{NodeStart, NodePreProcessor, NodeDBAnalyst, NodeResearcher, NodeSkeptic, NodeReporter, NodeEnd} {
		shape := ""
		if n == NodeStart || n == NodeEnd {
			shape = ", shape=oval"
		}
		fmt.Fprintf(&b, "  %s [label=%q%s];\n", n, string(n), shape)
	}
	for _, t := range transitions {
		if t.label == "" {
			fmt.Fprintf(&b, "  %s -> %s;\n", t.from, t.to)
			continue
		}
		fmt.Fprintf(&b, "  %s -> %s [label=%q];\n", t.from, t.to, t.label)
	}
	b.WriteString("}\n")
	return b.String()
}
