package suppression

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"regexp"

	"github.com/AlexAkulov/orgfox"
	"github.com/AlexAkulov/orgfox/helpers"
	"gopkg.in/yaml.v2"
)

var matchAllRegex = regexp.MustCompile(".*")

// Suppression - a known false positive, every set field must match
type Suppression struct {
	Repository *regexp.Regexp
	Rule       *regexp.Regexp
	FilePath   *regexp.Regexp
	Snippet    *regexp.Regexp
}

type suppressionDto struct {
	Repository string `yaml:"repository"`
	Rule       string `yaml:"rule"`
	FilePath   string `yaml:"file_path"`
	Snippet    string `yaml:"snippet"`
}

func compileRegex(pattern string) *regexp.Regexp {
	if pattern == "*" || pattern == "" {
		return matchAllRegex
	}
	if regex, err := regexp.Compile(pattern); err != nil {
		panic(fmt.Errorf("can't compile suppression regexp '%s' with: %v", pattern, err))
	} else {
		return regex
	}
}

func (s *Suppression) IsMatch(match *orgfox.ScanMatch) bool {
	return s.Repository.MatchString(match.Repo) &&
		s.Rule.MatchString(match.RuleName) &&
		s.FilePath.MatchString(match.RelativePath) &&
		s.Snippet.MatchString(match.Snippet)
}

// FilterSuppressed - matches not covered by any suppression
func FilterSuppressed(matches []orgfox.ScanMatch, suppressions []Suppression) []orgfox.ScanMatch {
	if len(suppressions) == 0 {
		return matches
	}
	filtered := make([]orgfox.ScanMatch, 0, len(matches))
	for i := range matches {
		suppressed := false
		for j := range suppressions {
			if suppressions[j].IsMatch(&matches[i]) {
				suppressed = true
				break
			}
		}
		if !suppressed {
			filtered = append(filtered, matches[i])
		}
	}
	return filtered
}

func LoadSuppressionsFromPath(path string) ([]Suppression, error) {
	results := []Suppression{}
	files, err := filepath.Glob(path)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		suppressions, err := loadSuppressionsFromFile(file)
		if err != nil {
			return nil, err
		}
		results = append(results, suppressions...)
	}
	return results, nil
}

func loadSuppressionsFromFile(file string) (s []Suppression, err error) {
	defer helpers.RecoverTo(&err)

	rawSuppressions := []suppressionDto{}
	rawData, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("can't read file '%s' with: %v", file, err)
	}
	if err := yaml.Unmarshal(rawData, &rawSuppressions); err != nil {
		return nil, fmt.Errorf("can't parse file '%s' with: %v", file, err)
	}

	return compileSuppressions(rawSuppressions), nil
}

func compileSuppressions(rawSuppressions []suppressionDto) []Suppression {
	suppressions := make([]Suppression, len(rawSuppressions))
	for i, rawSup := range rawSuppressions {
		suppressions[i] = Suppression{
			Repository: compileRegex(rawSup.Repository),
			Rule:       compileRegex(rawSup.Rule),
			FilePath:   compileRegex(rawSup.FilePath),
			Snippet:    compileRegex(rawSup.Snippet),
		}
	}
	return suppressions
}
