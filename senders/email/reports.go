package email

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AlexAkulov/orgfox"

	"github.com/facebookgo/muster"
)

type mailTemplateStruct struct {
	MatchesCount int
	FilesCount   int
	Repos        []*mailTemplateRepoStruct
}

type mailTemplateRepoStruct struct {
	Repo   string
	Branch string
	Rules  []*mailTemplateRuleStruct
}

type mailTemplateRuleStruct struct {
	Name  string
	Items []orgfox.ScanMatch
}

func (s *Sender) reportBatchMaker() muster.Batch {
	return &reportBatch{
		Sender: s,
		Repos:  map[string]*mailTemplateRepoStruct{},
		Files:  map[string]struct{}{},
	}
}

type reportBatch struct {
	MatchesCount int
	Repos        map[string]*mailTemplateRepoStruct
	Files        map[string]struct{}
	Sender       *Sender
}

func (b *reportBatch) Add(item interface{}) {
	report, ok := item.(orgfox.Report)
	if !ok {
		return
	}
	repoName := report.Target.FullName()
	repo := b.Repos[repoName]
	if repo == nil {
		repo = &mailTemplateRepoStruct{Repo: repoName, Branch: report.Branch}
		b.Repos[repoName] = repo
	}
	names, groups := report.ByRule()
	for _, name := range names {
		items := make([]orgfox.ScanMatch, 0, len(groups[name]))
		for _, match := range groups[name] {
			normalizeSnippet(&match)
			items = append(items, match)
			b.Files[fmt.Sprintf("%s/%s", repoName, match.RelativePath)] = struct{}{}
			b.MatchesCount++
		}
		repo.Rules = append(repo.Rules, &mailTemplateRuleStruct{Name: name, Items: items})
	}
}

func (b *reportBatch) messageData() *mailTemplateStruct {
	messageData := &mailTemplateStruct{
		FilesCount:   len(b.Files),
		MatchesCount: b.MatchesCount,
	}
	for _, repo := range b.Repos {
		messageData.Repos = append(messageData.Repos, repo)
	}
	sort.Slice(messageData.Repos, func(i, j int) bool {
		return messageData.Repos[i].Repo < messageData.Repos[j].Repo
	})
	return messageData
}

func (b *reportBatch) Fire(notifier muster.Notifier) {
	defer notifier.Done()
	if b.MatchesCount < 1 {
		return
	}
	messageData := b.messageData()
	err := b.Sender.deliver(b.Sender.AuditorEmail, getSubject(messageData), *messageData)
	if err != nil {
		b.Sender.Log.Error().Str("error", err.Error()).Msg("can't send email")
	}
}

func normalizeSnippet(match *orgfox.ScanMatch) {
	match.Snippet = strings.TrimSpace(match.Snippet)
	if len(match.Snippet) > 512 {
		match.Snippet = "too long"
	}
}

func getSubject(messageData *mailTemplateStruct) string {
	if len(messageData.Repos) == 1 {
		return fmt.Sprintf("Found %d matches in %s", messageData.MatchesCount, messageData.Repos[0].Repo)
	}
	return fmt.Sprintf("Found %d matches in %d repos", messageData.MatchesCount, len(messageData.Repos))
}
