package content

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterDelim = "---"

// frontMatter is the YAML header recognised at the top of knowledge-base files.
type frontMatter struct {
	Title       string  `yaml:"title"`
	Category    string  `yaml:"category"`
	Tags        tagList `yaml:"tags"`
	LastUpdated string  `yaml:"lastUpdated"`
	UpdatedAlt  string  `yaml:"last_updated"`
}

func (fm frontMatter) lastUpdated() string {
	if fm.LastUpdated != "" {
		return fm.LastUpdated
	}
	return fm.UpdatedAlt
}

// tagList accepts either a YAML sequence or a comma separated string.
type tagList []string

func (t *tagList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*t = cleanTags(items)
		return nil
	case yaml.ScalarNode:
		*t = cleanTags(strings.Split(node.Value, ","))
		return nil
	default:
		return fmt.Errorf("tags: unsupported yaml node kind %d", node.Kind)
	}
}

func cleanTags(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// splitFrontMatter separates a leading YAML block from the body. Files
// without a front-matter block return a zero header and the full text.
func splitFrontMatter(raw []byte) (frontMatter, string, error) {
	var fm frontMatter
	text := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))

	if !bytes.HasPrefix(text, []byte(frontMatterDelim+"\n")) {
		return fm, strings.TrimSpace(string(text)), nil
	}

	rest := text[len(frontMatterDelim)+1:]
	var header, body []byte
	if bytes.HasPrefix(rest, []byte(frontMatterDelim)) {
		body = rest[len(frontMatterDelim):]
	} else {
		end := bytes.Index(rest, []byte("\n"+frontMatterDelim))
		if end < 0 {
			return fm, strings.TrimSpace(string(text)), nil
		}
		header = rest[:end]
		body = rest[end+len("\n"+frontMatterDelim):]
	}

	// drop the remainder of the closing delimiter line
	if nl := bytes.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = nil
	}

	if err := yaml.Unmarshal(header, &fm); err != nil {
		return frontMatter{}, "", fmt.Errorf("failed to parse front matter: %w", err)
	}

	return fm, strings.TrimSpace(string(body)), nil
}
