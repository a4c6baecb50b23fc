package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepo(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Repo
		wantErr bool
	}{
		{name: "正常系: owner/repo", input: "acme/app", want: Repo{Owner: "acme", Name: "app"}},
		{name: "正常系: 前後の空白を無視する", input: "  acme/app ", want: Repo{Owner: "acme", Name: "app"}},
		{name: "正常系: URL形式", input: "https://github.com/acme/app.git", want: Repo{Owner: "acme", Name: "app"}},
		{name: "正常系: SSH形式", input: "git@github.com:acme/app.git", want: Repo{Owner: "acme", Name: "app"}},
		{name: "正常系: ssh://形式", input: "ssh://git@github.com/acme/app", want: Repo{Owner: "acme", Name: "app"}},
		{name: "異常系: リポジトリ名がない", input: "acme", wantErr: true},
		{name: "異常系: 空文字", input: "", wantErr: true},
		{name: "異常系: 階層が多い", input: "acme/app/extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRepo(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "acme/app", got.String())
		})
	}
}

func TestParseIssueKey(t *testing.T) {
	t.Run("正常系: キーの往復", func(t *testing.T) {
		repo := Repo{Owner: "acme", Name: "app"}
		key := repo.IssueKey(42)
		assert.Equal(t, "acme/app#42", key)

		gotRepo, number, err := ParseIssueKey(key)
		require.NoError(t, err)
		assert.Equal(t, repo, gotRepo)
		assert.Equal(t, 42, number)
	})

	for _, key := range []string{"acme/app", "acme/app#", "acme/app#x", "acme/app#0", "app#1"} {
		t.Run("異常系: "+key, func(t *testing.T) {
			_, _, err := ParseIssueKey(key)
			assert.Error(t, err)
		})
	}
}
