package signatures

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/AlexAkulov/orgfox"

	yaml "gopkg.in/yaml.v2"
)

type Scope int

const (
	Filename Scope = iota
	Content
)

func (s Scope) String() string {
	if s == Content {
		return "content"
	}
	return "filename"
}

type Kind int

const (
	Literal Kind = iota
	Regex
)

func (k Kind) String() string {
	if k == Regex {
		return "regex"
	}
	return "literal"
}

// Target selects the part of a file name that a Filename rule looks at.
type Target int

const (
	BaseName Target = iota
	Extension
	Path
)

const contentsPart = "contents"

// Signature is one entry of a rule file.
type Signature struct {
	Name       string  `json:"name" yaml:"name"`
	Part       string  `json:"part,omitempty" yaml:"part,omitempty"`
	Match      *string `json:"match,omitempty" yaml:"match,omitempty"`
	Regex      *string `json:"regex,omitempty" yaml:"regex,omitempty"`
	MinEntropy float64 `json:"min_entropy,omitempty" yaml:"min_entropy,omitempty"`
}

type ruleFile struct {
	Signatures []Signature `json:"signatures" yaml:"signatures"`
}

type Rule struct {
	Name       string
	Scope      Scope
	Kind       Kind
	Target     Target
	Pattern    string
	Expression string
	MinEntropy float64

	re  *regexp.Regexp
	err error
}

// Err is the compile error of a broken regex. Such a rule fails on every search.
func (r *Rule) Err() error {
	return r.err
}

// RuleSet is read-only after construction and safe for concurrent use.
type RuleSet struct {
	rules []Rule
}

func (rs *RuleSet) Rules() []Rule {
	result := make([]Rule, len(rs.rules))
	copy(result, rs.rules)
	return result
}

func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Broken returns rules whose pattern does not compile.
func (rs *RuleSet) Broken() []Rule {
	var result []Rule
	for _, r := range rs.rules {
		if r.err != nil {
			result = append(result, r)
		}
	}
	return result
}

// Compile parses a JSON rule file.
func Compile(data []byte) (*RuleSet, error) {
	return compileJSON("inline", data)
}

func compileJSON(source string, data []byte) (*RuleSet, error) {
	var raw ruleFile
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&raw); err != nil {
		return nil, &orgfox.RuleParseError{Source: source, Index: -1, Err: err}
	}
	if raw.Signatures == nil {
		return nil, &orgfox.RuleParseError{Source: source, Index: -1, Err: fmt.Errorf("no 'signatures' list")}
	}
	return FromSignatures(source, raw.Signatures)
}

func compileYAML(source string, data []byte) (*RuleSet, error) {
	var raw ruleFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &orgfox.RuleParseError{Source: source, Index: -1, Err: err}
	}
	if raw.Signatures == nil {
		return nil, &orgfox.RuleParseError{Source: source, Index: -1, Err: fmt.Errorf("no 'signatures' list")}
	}
	return FromSignatures(source, raw.Signatures)
}

func FromSignatures(source string, signatures []Signature) (*RuleSet, error) {
	rs := &RuleSet{rules: make([]Rule, 0, len(signatures))}
	for i, s := range signatures {
		r, err := compileSignature(s)
		if err != nil {
			return nil, &orgfox.RuleParseError{Source: source, Index: i, Err: err}
		}
		rs.rules = append(rs.rules, r)
	}
	return rs, nil
}

func compileSignature(s Signature) (Rule, error) {
	r := Rule{
		Name:       strings.TrimSpace(s.Name),
		MinEntropy: s.MinEntropy,
	}
	if r.Name == "" {
		return r, fmt.Errorf("name is required")
	}
	switch {
	case s.Match != nil && s.Regex != nil:
		return r, fmt.Errorf("'%s' has both match and regex", r.Name)
	case s.Match != nil:
		r.Kind = Literal
		r.Pattern = *s.Match
	case s.Regex != nil:
		r.Kind = Regex
		r.Pattern = *s.Regex
	default:
		return r, fmt.Errorf("'%s' has neither match nor regex", r.Name)
	}
	if r.Pattern == "" {
		return r, fmt.Errorf("'%s' has an empty pattern", r.Name)
	}
	if r.MinEntropy < 0 {
		return r, fmt.Errorf("'%s' has a negative min_entropy", r.Name)
	}

	part := strings.ToLower(strings.TrimSpace(s.Part))
	switch part {
	case contentsPart:
		r.Scope = Content
	case "extension":
		r.Target = Extension
	case "path":
		r.Target = Path
	}

	if r.Kind == Literal {
		r.Expression = r.Pattern
		return r, nil
	}
	anchored := strings.HasPrefix(r.Pattern, "^")
	r.Expression = strings.TrimPrefix(r.Pattern, "^")
	expr := r.Expression
	if r.Scope == Filename && anchored {
		expr = "^(?:" + expr + ")"
	}
	r.re, r.err = regexp.Compile(expr)
	if r.err != nil {
		r.err = fmt.Errorf("can't compile regexp '%s' with: %v", r.Expression, r.err)
	}
	return r, nil
}

func LoadFile(file string) (*RuleSet, error) {
	rawData, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, &orgfox.RuleParseError{Source: file, Index: -1, Err: err}
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yml", ".yaml":
		return compileYAML(file, rawData)
	default:
		return compileJSON(file, rawData)
	}
}

// LoadPath loads every file matched by the glob in lexical order.
func LoadPath(path string) (*RuleSet, error) {
	files, err := filepath.Glob(path)
	if err != nil {
		return nil, &orgfox.RuleParseError{Source: path, Index: -1, Err: err}
	}
	if len(files) == 0 {
		return nil, &orgfox.RuleParseError{Source: path, Index: -1, Err: fmt.Errorf("no rule files found")}
	}
	result := &RuleSet{}
	for _, file := range files {
		rs, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		result.rules = append(result.rules, rs.rules...)
	}
	return result, nil
}

// Load combines inline signatures with the files matched by path; either may be empty.
func Load(inline []Signature, path string) (*RuleSet, error) {
	result, err := FromSignatures("config", inline)
	if err != nil {
		return nil, err
	}
	if path != "" {
		fromFiles, err := LoadPath(path)
		if err != nil {
			return nil, err
		}
		result.rules = append(result.rules, fromFiles.rules...)
	}
	return result, nil
}
