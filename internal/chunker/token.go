package chunker

import (
	"strings"

	"github.com/dgallion1/docsection/internal/doctree"
)

// tokensPerWord approximates English tokenization.
const tokensPerWord = 1.33

// EstimateTokens gives a rough token count from the word count.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := int(float64(len(strings.Fields(text))) * tokensPerWord)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// TreeTokens estimates the token count of all text under n.
func TreeTokens(n *doctree.Node) int {
	total := 0
	doctree.Walk(n, func(n *doctree.Node, _ []*doctree.Node) doctree.WalkStatus {
		if n.Type == doctree.KindText || n.Type == doctree.KindCode || n.Type == doctree.KindInlineCode {
			total += EstimateTokens(n.Value)
		}
		return doctree.WalkContinue
	})
	return total
}
