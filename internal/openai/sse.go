package openai

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	dataPrefix = "data:"
	doneMarker = "[DONE]"
)

// ErrIncompleteStream is returned by CollectAnswer when the stream ended
// without a finish frame or the [DONE] marker.
var ErrIncompleteStream = errors.New("completion stream ended before the answer was finished")

// ReadDeltas scans an event stream and calls fn with every non-empty content
// fragment. Frames that fail to decode are skipped. Reading stops at the
// [DONE] marker or EOF.
func ReadDeltas(r io.Reader, fn func(string) error) error {
	_, err := scanDeltas(r, fn)
	return err
}

// scanDeltas reports whether the stream terminated properly: a choice with a
// finish reason or the [DONE] marker was seen.
func scanDeltas(r io.Reader, fn func(string) error) (bool, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	finished := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
		if payload == doneMarker {
			return true, nil
		}

		var frame openai.ChatCompletionStreamResponse
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			continue
		}
		if len(frame.Choices) == 0 {
			continue
		}
		choice := frame.Choices[0]
		if choice.FinishReason != "" {
			finished = true
		}
		if choice.Delta.Content == "" {
			continue
		}
		if err := fn(choice.Delta.Content); err != nil {
			return finished, err
		}
	}
	return finished, scanner.Err()
}

// CollectText drains an event stream into the response text, complete or
// not.
func CollectText(r io.Reader) (string, error) {
	var b strings.Builder
	err := ReadDeltas(r, func(s string) error {
		b.WriteString(s)
		return nil
	})
	return b.String(), err
}

// CollectAnswer is CollectText for callers that must only see finished
// answers. A stream closed before its finish frame yields
// ErrIncompleteStream along with the partial text.
func CollectAnswer(r io.Reader) (string, error) {
	var b strings.Builder
	finished, err := scanDeltas(r, func(s string) error {
		b.WriteString(s)
		return nil
	})
	if err != nil {
		return b.String(), err
	}
	if !finished {
		return b.String(), ErrIncompleteStream
	}
	return b.String(), nil
}

// SyntheticStream wraps a complete text in the same frame shape a live
// completion stream uses: one content frame, one terminal frame and [DONE].
func SyntheticStream(text string) io.ReadCloser {
	var buf bytes.Buffer
	writeFrame(&buf, openai.ChatCompletionStreamResponse{
		Object: "chat.completion.chunk",
		Choices: []openai.ChatCompletionStreamChoice{{
			Delta: openai.ChatCompletionStreamChoiceDelta{Role: openai.ChatMessageRoleAssistant, Content: text},
		}},
	})
	writeFrame(&buf, openai.ChatCompletionStreamResponse{
		Object: "chat.completion.chunk",
		Choices: []openai.ChatCompletionStreamChoice{{
			FinishReason: openai.FinishReasonStop,
		}},
	})
	buf.WriteString(dataPrefix + " " + doneMarker + "\n\n")
	return io.NopCloser(&buf)
}

func writeFrame(buf *bytes.Buffer, frame openai.ChatCompletionStreamResponse) {
	data, _ := json.Marshal(frame)
	buf.WriteString(dataPrefix + " ")
	buf.Write(data)
	buf.WriteString("\n\n")
}
