// Package quizfile reads quiz definitions from disk for bulk import.
//
// Two formats are accepted. A .yaml or .yml file holds the quiz directly.
// A .md file carries the quiz in its front matter and uses the Markdown body
// as the description.
package quizfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/templui/quizline/internal/markdown"
	"github.com/templui/quizline/internal/service"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("unsupported quiz file format")

type Loader struct {
	parser *markdown.Parser
}

func NewLoader(parser *markdown.Parser) *Loader {
	return &Loader{parser: parser}
}

// Load reads one quiz file. The result is not validated; QuizService.Create
// does that on import.
func (l *Loader) Load(path string) (service.QuizInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return service.QuizInput{}, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML(data)
	case ".md", ".markdown":
		return l.decodeMarkdown(data)
	default:
		return service.QuizInput{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func decodeYAML(data []byte) (service.QuizInput, error) {
	var input service.QuizInput

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	err := decoder.Decode(&input)
	if err != nil {
		return service.QuizInput{}, fmt.Errorf("failed to decode yaml: %w", err)
	}
	return input, nil
}

func (l *Loader) decodeMarkdown(data []byte) (service.QuizInput, error) {
	var input service.QuizInput

	rest, err := l.parser.DecodeFrontmatter(data, &input)
	if err != nil {
		return service.QuizInput{}, err
	}

	// front matter wins when both are present
	if input.Description == "" {
		input.Description = string(rest)
	}
	return input, nil
}
