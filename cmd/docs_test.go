package cmd

import (
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/etnz/stockledger/docs"
)

// runnable is the info string of the manual examples executed by the tests.
const runnable = "bash run"

// examples returns the command lines of the runnable blocks of a topic.
func examples(t *testing.T, content string) [][]string {
	t.Helper()
	source := []byte(content)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var lines [][]string
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !entering || !ok || fcb.Info == nil {
			return ast.WalkContinue, nil
		}
		if string(fcb.Info.Segment.Value(source)) != runnable {
			return ast.WalkContinue, nil
		}
		for i := 0; i < fcb.Lines().Len(); i++ {
			line := fcb.Lines().At(i)
			if fields := strings.Fields(string(line.Value(source))); len(fields) > 0 {
				lines = append(lines, fields)
			}
		}
		return ast.WalkContinue, nil
	})
	return lines
}

// TestManualExamples runs the examples of every topic of the manual, each
// topic on a fresh ledger.
func TestManualExamples(t *testing.T) {
	topics, err := docs.Topics()
	if err != nil {
		t.Fatal(err)
	}
	for _, topic := range topics {
		t.Run(topic, func(t *testing.T) {
			content, err := docs.Topic(topic)
			if err != nil {
				t.Fatal(err)
			}
			cfg := newTestConfig(t)
			for _, args := range examples(t, content) {
				if args[0] != "sl" {
					t.Fatalf("example %q does not start with sl", strings.Join(args, " "))
				}
				if out, status := run(t, cfg, args[1:]...); status != subcommands.ExitSuccess {
					t.Errorf("%s: %s: got status %v. Output:\n%s", topic, strings.Join(args, " "), status, out)
				}
			}
		})
	}
}

func TestTopicCommand(t *testing.T) {
	cfg := newTestConfig(t)
	if out := mustRun(t, cfg, "topic"); !strings.Contains(out, "* cost-basis:") {
		t.Errorf("topic output does not list the topics:\n%s", out)
	}
	if out := mustRun(t, cfg, "topic", "ledger", "watchlists"); !strings.Contains(out, "# The ledger") || !strings.Contains(out, "# Watchlists") {
		t.Errorf("topic ledger watchlists:\n%s", out)
	}
	if _, status := run(t, cfg, "topic", "nope"); status != subcommands.ExitUsageError {
		t.Errorf("unknown topic: got status %v, want usage error", status)
	}
}
