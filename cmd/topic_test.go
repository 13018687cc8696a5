package cmd

import (
	"strings"
	"testing"
)

func TestTopicIndex(t *testing.T) {
	index, err := topicIndex()
	if err != nil {
		t.Fatalf("topicIndex() = %v", err)
	}
	for _, line := range []string{
		"* balance: Balance",
		"* replay: Roster Replay",
		"* salary: Salary",
	} {
		if !strings.Contains(index, line) {
			t.Errorf("topicIndex() missing %q:\n%s", line, index)
		}
	}
	if strings.Contains(index, "* readme:") {
		t.Errorf("topicIndex() lists the readme:\n%s", index)
	}
}
