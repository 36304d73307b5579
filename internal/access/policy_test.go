package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/npek/portal/internal/config"
	"github.com/npek/portal/internal/user"
	"github.com/npek/portal/internal/web"
)

const (
	primaryDoc    = "doc-primary"
	secondaryDoc  = "doc-secondary"
	philosophyDoc = "doc-philosophy"
)

func newTestPolicy() *Policy {
	return NewPolicy(&config.ContentConfig{
		SocialStudiesPrimaryDoc:   primaryDoc,
		SocialStudiesSecondaryDoc: secondaryDoc,
		PhilosophyDoc:             philosophyDoc,
	})
}

func student(group string) *user.User {
	return &user.User{GroupName: group, Role: user.RoleStudent}
}

func TestPolicy_Philosophy(t *testing.T) {
	p := newTestPolicy()

	tests := []struct {
		name string
		user *user.User
		want Outcome
	}{
		{name: "ЭС24 student", user: student("ЭС24"), want: Granted},
		{name: "ТЭС24 student", user: student("ТЭС24"), want: Granted},
		{name: "МК23 student", user: student("МК23"), want: AccessDenied},
		{name: "teacher", user: &user.User{Role: user.RoleTeacher}, want: Granted},
		{name: "admin of another group", user: &user.User{GroupName: "МК23", Role: user.RoleStudent, IsAdmin: true}, want: Granted},
		{name: "anonymous", user: nil, want: AuthenticationRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Philosophy(tt.user)
			assert.Equal(t, tt.want, d.Outcome)
			if tt.want == Granted {
				assert.Equal(t, philosophyDoc, d.DocumentID)
			} else {
				assert.Empty(t, d.DocumentID)
			}
		})
	}
}

func TestPolicy_SocialStudies(t *testing.T) {
	p := newTestPolicy()

	tests := []struct {
		name        string
		user        *user.User
		preview     string
		want        Outcome
		wantDoc     string
		wantPreview bool
	}{
		{name: "first list", user: student("МК23"), want: Granted, wantDoc: primaryDoc},
		{name: "second list", user: student("ОИБ25-1"), want: Granted, wantDoc: secondaryDoc},
		{name: "outside both lists", user: student("ЭС24"), want: AccessDenied},
		{name: "student preview is ignored", user: student("МК23"), preview: "ЭМ25", want: Granted, wantDoc: primaryDoc},
		{name: "anonymous", want: AuthenticationRequired},
		{
			name:        "teacher without group gets default",
			user:        &user.User{Role: user.RoleTeacher},
			want:        Granted,
			wantDoc:     primaryDoc,
			wantPreview: true,
		},
		{
			name:        "teacher previews second list",
			user:        &user.User{Role: user.RoleTeacher},
			preview:     "ТЭС25",
			want:        Granted,
			wantDoc:     secondaryDoc,
			wantPreview: true,
		},
		{
			name:        "admin outside both lists",
			user:        &user.User{GroupName: "ЭС24", Role: user.RoleStudent, IsAdmin: true},
			want:        Granted,
			wantDoc:     primaryDoc,
			wantPreview: true,
		},
		{
			name:        "admin own group in second list",
			user:        &user.User{GroupName: "ЭМ25", Role: user.RoleStudent, IsAdmin: true},
			want:        Granted,
			wantDoc:     secondaryDoc,
			wantPreview: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.SocialStudies(tt.user, tt.preview)
			assert.Equal(t, tt.want, d.Outcome)
			assert.Equal(t, tt.wantDoc, d.DocumentID)
			assert.Equal(t, tt.wantPreview, d.CanPreview)
		})
	}
}

func TestPolicy_PreviewGroups(t *testing.T) {
	p := newTestPolicy()

	groups := p.PreviewGroups()
	assert.Len(t, groups, 15)
	assert.IsNonDecreasing(t, groups)
	assert.NotContains(t, groups, "ЭС24")
	assert.NotContains(t, groups, "ТЭС24")

	for _, g := range groups {
		assert.True(t, user.IsValidGroup(g), g)
	}
}

func TestPolicy_Nav(t *testing.T) {
	p := newTestPolicy()

	assert.Equal(t, web.Nav{SocialStudies: true}, p.Nav(student("МК23")))
	assert.Equal(t, web.Nav{Philosophy: true}, p.Nav(student("ЭС24")))
	assert.Equal(t, web.Nav{SocialStudies: true, Philosophy: true}, p.Nav(&user.User{Role: user.RoleTeacher}))
}

func TestDocumentURLs(t *testing.T) {
	assert.Equal(t, "https://docs.google.com/document/d/abc", DocumentURL("abc"))
	assert.Equal(t, "https://docs.google.com/document/d/abc/preview", PreviewURL("abc"))
	assert.Empty(t, PreviewURL(""))
}
