// Package flow handles parsing and representation of verification flow files.
package flow

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/verify-runner/pkg/logger"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseFile parses a single YAML flow file.
func ParseFile(path string) (*Flow, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided flow file
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses YAML flow content.
//
// A flow is either a single document holding the step list, or two
// documents separated by "---": the config mapping followed by the steps.
func Parse(data []byte, sourcePath string) (*Flow, error) {
	parts := splitYAMLDocuments(string(data))

	flow := &Flow{
		SourcePath: sourcePath,
	}

	if len(parts) == 0 {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    1,
			Message: "empty flow file",
		}
	}

	if len(parts) == 1 {
		if err := parseSteps(parts[0], flow); err != nil {
			return nil, err
		}
	} else {
		if err := parseConfig(parts[0], flow); err != nil {
			return nil, err
		}
		if err := parseSteps(parts[1], flow); err != nil {
			return nil, err
		}
	}

	return flow, nil
}

func splitYAMLDocuments(content string) []string {
	var parts []string
	var current strings.Builder
	inMultiline := false
	multilineIndent := 0

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !inMultiline {
			if strings.HasSuffix(trimmed, "|") || strings.HasSuffix(trimmed, ">") ||
				strings.HasSuffix(trimmed, "|-") || strings.HasSuffix(trimmed, ">-") {
				inMultiline = true
				if i+1 < len(lines) {
					next := lines[i+1]
					multilineIndent = len(next) - len(strings.TrimLeft(next, " \t"))
				}
			}
		} else {
			indent := len(line) - len(strings.TrimLeft(line, " \t"))
			if trimmed != "" && indent < multilineIndent {
				inMultiline = false
			}
		}

		if !inMultiline && trimmed == "---" && strings.TrimLeft(line, " \t") == "---" {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		} else {
			current.WriteString(line)
			current.WriteString("\n")
		}
	}

	if current.Len() > 0 {
		s := strings.TrimSpace(current.String())
		if s != "" {
			parts = append(parts, current.String())
		}
	}

	return parts
}

func parseConfig(content string, flow *Flow) error {
	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return &ParseError{
			Path:    flow.SourcePath,
			Message: fmt.Sprintf("invalid config: %v", err),
		}
	}
	flow.Config = config
	return nil
}

func parseSteps(content string, flow *Flow) error {
	var rawSteps []yaml.Node
	if err := yaml.Unmarshal([]byte(content), &rawSteps); err != nil {
		return &ParseError{
			Path:    flow.SourcePath,
			Message: fmt.Sprintf("invalid steps: %v", err),
		}
	}

	for _, node := range rawSteps {
		step, err := parseStep(&node, flow.SourcePath)
		if err != nil {
			return err
		}
		flow.Steps = append(flow.Steps, step)
	}

	return nil
}

func parseStep(node *yaml.Node, sourcePath string) (Step, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "step must be a mapping",
		}
	}

	stepType, valueNode := extractStepType(node)
	if stepType == "" || valueNode == nil {
		key := ""
		if len(node.Content) > 0 {
			key = node.Content[0].Value
		}
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: fmt.Sprintf("unknown step type: %s", key),
		}
	}

	return decodeStep(StepType(stepType), valueNode, sourcePath)
}

func extractStepType(node *yaml.Node) (string, *yaml.Node) {
	for i := 0; i < len(node.Content)-1; i += 2 {
		key := node.Content[i].Value
		if isStepType(key) {
			return key, node.Content[i+1]
		}
	}
	return "", nil
}

func isStepType(key string) bool {
	_, ok := stepDecoders[StepType(key)]
	return ok
}

// stepDecoder builds an empty step and, for keywords with a shorthand
// form, fills it from a scalar value.
type stepDecoder struct {
	new    func() Step
	scalar func(s Step, value string) error
}

func selectorShorthand(s Step, value string) error {
	SelectorOf(s).CSS = value
	return nil
}

var stepDecoders = map[StepType]stepDecoder{
	StepNavigate: {
		new: func() Step { return &NavigateStep{} },
		scalar: func(s Step, v string) error {
			s.(*NavigateStep).URL = v
			return nil
		},
	},
	StepFill:          {new: func() Step { return &FillStep{} }},
	StepClick:         {new: func() Step { return &ClickStep{} }, scalar: selectorShorthand},
	StepCheck:         {new: func() Step { return &CheckStep{} }, scalar: selectorShorthand},
	StepAssertVisible: {new: func() Step { return &AssertVisibleStep{} }, scalar: selectorShorthand},
	StepAssertEnabled: {new: func() Step { return &AssertEnabledStep{} }, scalar: selectorShorthand},
	StepAssertTitle: {
		new: func() Step { return &AssertTitleStep{} },
		scalar: func(s Step, v string) error {
			s.(*AssertTitleStep).Title = v
			return nil
		},
	},
	StepWait: {
		new: func() Step { return &WaitStep{} },
		scalar: func(s Step, v string) error {
			ms, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("wait: invalid duration %q", v)
			}
			s.(*WaitStep).Ms = ms
			return nil
		},
	},
	StepWaitUntil: {new: func() Step { return &WaitUntilStep{} }},
	StepTakeScreenshot: {
		new: func() Step { return &TakeScreenshotStep{} },
		scalar: func(s Step, v string) error {
			s.(*TakeScreenshotStep).Path = v
			return nil
		},
	},
}

func decodeStep(stepType StepType, valueNode *yaml.Node, sourcePath string) (Step, error) {
	dec, ok := stepDecoders[stepType]
	if !ok {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    valueNode.Line,
			Message: fmt.Sprintf("unknown step type: %s", stepType),
		}
	}

	step := dec.new()
	var err error
	if valueNode.Kind == yaml.ScalarNode && dec.scalar != nil {
		err = dec.scalar(step, valueNode.Value)
	} else {
		err = valueNode.Decode(step)
	}
	if err != nil {
		return nil, wrapParseError(sourcePath, valueNode.Line, err)
	}

	BaseOf(step).StepType = stepType
	return step, nil
}

func wrapParseError(path string, line int, err error) error {
	return &ParseError{
		Path:    path,
		Line:    line,
		Message: err.Error(),
	}
}

// ParseDirectory parses all YAML files under dir that pass the tag
// filter. Files that fail to parse are logged and skipped.
func ParseDirectory(dir string, includeTags, excludeTags []string) ([]*Flow, error) {
	var flows []*Flow

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isFlowFile(path) {
			return nil
		}

		flow, parseErr := ParseFile(path)
		if parseErr != nil {
			logger.Warn("skipping %s: %v", path, parseErr)
			return nil
		}

		if ShouldIncludeFlow(flow, includeTags, excludeTags) {
			flows = append(flows, flow)
		}
		return nil
	})

	return flows, err
}

func isFlowFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// ShouldIncludeFlow reports whether a flow carries one of includeTags (when
// any are given) and none of excludeTags.
func ShouldIncludeFlow(flow *Flow, includeTags, excludeTags []string) bool {
	if len(includeTags) > 0 && !hasAnyTag(flow.Config.Tags, includeTags) {
		return false
	}
	return !hasAnyTag(flow.Config.Tags, excludeTags)
}

func hasAnyTag(tags, want []string) bool {
	for _, tag := range tags {
		for _, w := range want {
			if tag == w {
				return true
			}
		}
	}
	return false
}
