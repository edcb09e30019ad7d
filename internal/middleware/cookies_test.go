package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCookies(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   map[string]string
	}{
		{name: "пустой заголовок", header: "", want: map[string]string{}},
		{
			name:   "несколько пар с пробелами",
			header: "session=abc123; theme=dark ;  lang = fi",
			want:   map[string]string{"session": "abc123", "theme": "dark", "lang": "fi"},
		},
		{
			name:   "значение декодируется",
			header: "note=hello%20world",
			want:   map[string]string{"note": "hello world"},
		},
		{
			name:   "битое кодирование остается как есть",
			header: "note=100%zz",
			want:   map[string]string{"note": "100%zz"},
		},
		{
			name:   "делим по первому =",
			header: "data=a=b=c",
			want:   map[string]string{"data": "a=b=c"},
		},
		{
			name:   "пары без = и без имени пропускаются",
			header: "flag; =orphan; ok=1",
			want:   map[string]string{"ok": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCookies(tt.header))
		})
	}
}

func TestIsPublicPath(t *testing.T) {
	assert.True(t, IsPublicPath("/api/v1/auth/login"))
	assert.True(t, IsPublicPath("/api/v1/auth/login/"))
	assert.True(t, IsPublicPath("/api/v1/health"))
	assert.True(t, IsPublicPath("/api/v1/auth/password/reset/confirm"))
	assert.False(t, IsPublicPath("/api/v1/profile/me"))
	assert.False(t, IsPublicPath("/api/v1/items"))
	assert.False(t, IsPublicPath("/api/v1/auth/loginx"))
}
