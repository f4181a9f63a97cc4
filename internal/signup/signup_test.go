package signup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() Form {
	return Form{
		DisplayName:     "mapper",
		Email:           "mapper@example.org",
		EmailConfirm:    "mapper@example.org",
		Password:        "correct horse",
		PasswordConfirm: "correct horse",
	}
}

func locs(issues []Issue) []string {
	var out []string
	for _, issue := range issues {
		out = append(out, issue.Loc[1])
	}
	return out
}

func TestValidate_OK(t *testing.T) {
	assert.Empty(t, Validate(validForm(), "/;.,?%#"))
}

func TestValidate_Blacklist(t *testing.T) {
	form := validForm()
	form.DisplayName = "map/per"

	issues := Validate(form, "/;.,?%#")
	require.Len(t, issues, 1)
	assert.Equal(t, "error", issues[0].Type)
	assert.Equal(t, []string{"", "display_name"}, issues[0].Loc)
	assert.Contains(t, issues[0].Msg, "/;.,?%#")
}

func TestValidate_Mismatches(t *testing.T) {
	form := validForm()
	form.EmailConfirm = "other@example.org"
	form.PasswordConfirm = "battery staple"

	issues := Validate(form, "")
	assert.Equal(t, []string{"email", "email_confirm", "password", "password_confirm"}, locs(issues))
	assert.Equal(t, issues[0].Msg, issues[1].Msg)
}

func TestValidate_StructRules(t *testing.T) {
	form := validForm()
	form.Email = "not-an-email"
	form.EmailConfirm = "not-an-email"
	form.Password = "short"
	form.PasswordConfirm = "short"

	issues := Validate(form, "")
	assert.ElementsMatch(t, []string{"email", "password"}, locs(issues))
}
