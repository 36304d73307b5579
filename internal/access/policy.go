// Package access decides which subject materials a signed-in user may open.
package access

import (
	"slices"

	"github.com/npek/portal/internal/config"
	"github.com/npek/portal/internal/user"
	"github.com/npek/portal/internal/web"
)

type Outcome int

const (
	Granted Outcome = iota
	AuthenticationRequired
	AccessDenied
)

func (o Outcome) String() string {
	switch o {
	case Granted:
		return "granted"
	case AuthenticationRequired:
		return "authentication_required"
	case AccessDenied:
		return "access_denied"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating one content class for one user.
type Decision struct {
	Outcome    Outcome
	DocumentID string
	// CanPreview is set for users allowed to open any group's variant.
	CanPreview bool
}

// documentRule maps a list of groups to one document variant.
type documentRule struct {
	groups     []string
	documentID string
}

type Policy struct {
	socialRules      []documentRule
	socialDefault    string
	philosophyGroups []string
	philosophyDoc    string
}

func NewPolicy(cfg *config.ContentConfig) *Policy {
	return &Policy{
		socialRules: []documentRule{
			{
				groups:     []string{"УК25к", "ИСиП25-1", "ЭМ23", "МК23", "ЭС25-1", "ЭС25-2", "УК25-2"},
				documentID: cfg.SocialStudiesPrimaryDoc,
			},
			{
				groups:     []string{"ОИБ25-1", "ОИБ25-2", "ОИБ25к", "УК25-1", "ИСиП25к", "МНЭ25", "ТЭС25", "ЭМ25"},
				documentID: cfg.SocialStudiesSecondaryDoc,
			},
		},
		socialDefault:    cfg.SocialStudiesPrimaryDoc,
		philosophyGroups: []string{"ЭС24", "ТЭС24"},
		philosophyDoc:    cfg.PhilosophyDoc,
	}
}

// socialDocument returns the first rule matching group, or the default.
func (p *Policy) socialDocument(group string) (string, bool) {
	for _, rule := range p.socialRules {
		if slices.Contains(rule.groups, group) {
			return rule.documentID, true
		}
	}
	return p.socialDefault, false
}

// SocialStudies evaluates the social studies class. previewGroup is honoured
// only for teachers and admins.
func (p *Policy) SocialStudies(u *user.User, previewGroup string) Decision {
	if u == nil {
		return Decision{Outcome: AuthenticationRequired}
	}

	if u.IsPrivileged() {
		group := u.GroupName
		if previewGroup != "" {
			group = previewGroup
		}
		doc, _ := p.socialDocument(group)
		return Decision{Outcome: Granted, DocumentID: doc, CanPreview: true}
	}

	doc, ok := p.socialDocument(u.GroupName)
	if !ok {
		return Decision{Outcome: AccessDenied}
	}
	return Decision{Outcome: Granted, DocumentID: doc}
}

func (p *Policy) Philosophy(u *user.User) Decision {
	if u == nil {
		return Decision{Outcome: AuthenticationRequired}
	}
	if u.IsPrivileged() || slices.Contains(p.philosophyGroups, u.GroupName) {
		return Decision{Outcome: Granted, DocumentID: p.philosophyDoc}
	}
	return Decision{Outcome: AccessDenied}
}

// PreviewGroups lists every group that has a social studies variant, sorted.
func (p *Policy) PreviewGroups() []string {
	var groups []string
	for _, rule := range p.socialRules {
		groups = append(groups, rule.groups...)
	}
	slices.Sort(groups)
	return groups
}

func (p *Policy) IsPreviewGroup(group string) bool {
	_, ok := p.socialDocument(group)
	return ok
}

func (p *Policy) Nav(u *user.User) web.Nav {
	return web.Nav{
		SocialStudies: p.SocialStudies(u, "").Outcome == Granted,
		Philosophy:    p.Philosophy(u).Outcome == Granted,
	}
}
