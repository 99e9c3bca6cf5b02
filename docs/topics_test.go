package docs

import (
	"bufio"
	"regexp"
	"slices"
	"strings"
	"testing"
)

func TestTopics(t *testing.T) {
	// Every topic listed in readme.md can be loaded, and every topic is listed.
	var listed []string
	scanner := bufio.NewScanner(strings.NewReader(Index()))
	topicRegex := regexp.MustCompile(`^\*\s+([^:]+):.*$`)
	for scanner.Scan() {
		if m := topicRegex.FindStringSubmatch(scanner.Text()); len(m) > 1 {
			listed = append(listed, strings.TrimSpace(m[1]))
		}
	}
	if len(listed) == 0 {
		t.Fatal("readme.md lists no topic")
	}

	for _, topic := range listed {
		t.Run("load_"+topic, func(t *testing.T) {
			content, err := Topic(topic)
			if err != nil {
				t.Fatalf("Topic(%q) failed: %v", topic, err)
			}
			if !strings.HasPrefix(content, "# ") {
				t.Errorf("topic %q does not start with a title", topic)
			}
		})
	}

	topics, err := Topics()
	if err != nil {
		t.Fatal(err)
	}
	for _, topic := range topics {
		if !slices.Contains(listed, topic) {
			t.Errorf("topic %q is not listed in readme.md", topic)
		}
	}
}

func TestTopic_All(t *testing.T) {
	all, err := Topic("*")
	if err != nil {
		t.Fatal(err)
	}
	topics, _ := Topics()
	for _, topic := range topics {
		content, _ := Topic(topic)
		if !strings.Contains(all, content) {
			t.Errorf("Topic(*) does not contain %q", topic)
		}
	}
	if _, err := Topic("nope"); err == nil {
		t.Error(`Topic("nope") should fail`)
	}
}
