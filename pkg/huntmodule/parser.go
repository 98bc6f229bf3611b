package huntmodule

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontMatter is a plain yaml.v3 struct decoded straight off the
// document's front matter.
type frontMatter struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	OSTypes      []string `yaml:"os_types"`
	Tags         []string `yaml:"tags"`
	SeverityHint string   `yaml:"severity_hint"`
}

const frontMatterDelim = "---"

// ParseMarkdown parses a HuntModule document: a YAML front-matter block
// delimited by "---" lines, followed by one "## <step-id>" section per
// Step. Each section may contain, in any order, a fenced shell code block
// (the command) and metadata lines of the form "- key: value" for
// description, timeout_seconds, and requires_sudo.
func ParseMarkdown(source string) (*Module, error) {
	fm, body, err := splitFrontMatter(source)
	if err != nil {
		return nil, err
	}

	var meta frontMatter
	if err := yaml.Unmarshal([]byte(fm), &meta); err != nil {
		return nil, fmt.Errorf("huntmodule: parsing front matter: %w", err)
	}

	steps, err := parseSteps(body)
	if err != nil {
		return nil, fmt.Errorf("huntmodule %s: %w", meta.ID, err)
	}

	osTypes := make([]OSType, 0, len(meta.OSTypes))
	for _, t := range meta.OSTypes {
		osTypes = append(osTypes, OSType(t))
	}

	m := &Module{
		ID:           meta.ID,
		Name:         meta.Name,
		Description:  meta.Description,
		OSTypes:      osTypes,
		Tags:         meta.Tags,
		SeverityHint: SeverityHint(meta.SeverityHint),
		Steps:        steps,
		RawSource:    source,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// splitFrontMatter separates the leading "---" delimited YAML block from
// the rest of the document.
func splitFrontMatter(source string) (fm, body string, err error) {
	lines := strings.Split(source, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontMatterDelim {
		return "", "", fmt.Errorf("huntmodule: document must begin with a %q front-matter delimiter", frontMatterDelim)
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontMatterDelim {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), nil
		}
	}
	return "", "", fmt.Errorf("huntmodule: unterminated front-matter block")
}

var stepHeader = "## "

// parseSteps scans body for "## <id>" sections and extracts each step's
// description, fenced command, timeout, and sudo metadata.
func parseSteps(body string) ([]Step, error) {
	var steps []Step
	var cur *Step
	var curLines []string

	flush := func() error {
		if cur == nil {
			return nil
		}
		step, err := finalizeStep(*cur, curLines)
		if err != nil {
			return err
		}
		steps = append(steps, step)
		cur = nil
		curLines = nil
		return nil
	}

	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, stepHeader) {
			if err := flush(); err != nil {
				return nil, err
			}
			cur = &Step{ID: strings.TrimSpace(strings.TrimPrefix(line, stepHeader))}
			continue
		}
		if cur != nil {
			curLines = append(curLines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning step sections: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return steps, nil
}

// finalizeStep extracts a step's fenced command block and "- key: value"
// metadata lines out of its section body.
func finalizeStep(step Step, lines []string) (Step, error) {
	step.TimeoutSec = DefaultStepTimeoutSec

	var descParts []string
	var inFence bool
	var cmdLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "```"):
			inFence = !inFence
		case inFence:
			cmdLines = append(cmdLines, line)
		case strings.HasPrefix(trimmed, "- timeout_seconds:"):
			val := strings.TrimSpace(strings.TrimPrefix(trimmed, "- timeout_seconds:"))
			n, err := strconv.Atoi(val)
			if err != nil {
				return step, fmt.Errorf("step %s: invalid timeout_seconds %q: %w", step.ID, val, err)
			}
			step.TimeoutSec = n
		case strings.HasPrefix(trimmed, "- requires_sudo:"):
			val := strings.TrimSpace(strings.TrimPrefix(trimmed, "- requires_sudo:"))
			step.RequiresSudo = val == "true"
		case strings.HasPrefix(trimmed, "- description:"):
			descParts = append(descParts, strings.TrimSpace(strings.TrimPrefix(trimmed, "- description:")))
		case trimmed != "":
			descParts = append(descParts, trimmed)
		}
	}

	step.Description = strings.TrimSpace(strings.Join(descParts, " "))
	step.Command = strings.TrimSpace(strings.Join(cmdLines, "\n"))
	if step.Command == "" {
		return step, fmt.Errorf("step %s: no fenced command block found", step.ID)
	}
	return step, nil
}
