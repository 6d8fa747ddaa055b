package summary

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Transcript lines can carry either a content string or structured blocks.
type transcriptLine struct {
	Type    string `json:"type"`
	Message struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const maxTranscriptLine = 4 << 20

// LatestResponse reads a JSONL session transcript and returns the trailing
// run of assistant text, oldest first, joined with blank lines. Malformed
// lines are skipped. An empty string means the transcript holds no
// assistant text.
func LatestResponse(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("transcript: open: %w", err)
	}
	defer file.Close()

	var lines []transcriptLine
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxTranscriptLine)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var line transcriptLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("transcript: read: %w", err)
	}

	// Walk back to the start of the trailing assistant run, then collect
	// forward so multi-message responses read in order.
	start := len(lines)
	for start > 0 && isAssistant(lines[start-1]) {
		start--
	}
	var parts []string
	for _, line := range lines[start:] {
		if text := lineText(line); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func isAssistant(line transcriptLine) bool {
	return line.Type == "assistant" || line.Message.Role == "assistant"
}

func lineText(line transcriptLine) string {
	if len(line.Message.Content) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(line.Message.Content, &plain); err == nil {
		return strings.TrimSpace(plain)
	}

	var blocks []contentBlock
	if err := json.Unmarshal(line.Message.Content, &blocks); err != nil {
		return ""
	}
	var parts []string
	for _, block := range blocks {
		if block.Type != "" && block.Type != "text" {
			continue
		}
		if text := strings.TrimSpace(block.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}
