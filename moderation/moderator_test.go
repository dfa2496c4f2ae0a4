package moderation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"damn", "heck"}, '*')
	req.NoError(err)
	req.NotNil(moderator)

	t.Run("should replace a plain forbidden word", func(t *testing.T) {
		require.Equal(t, "you **** fool", moderator.Censor("you damn fool"))
	})

	t.Run("should match through leet-speak substitutions", func(t *testing.T) {
		require.Equal(t, "you **** fool", moderator.Censor("you d4mn fool"))
	})

	t.Run("should match through inserted spacing", func(t *testing.T) {
		require.Equal(t, "*******", moderator.Censor("d a m n"))
	})

	t.Run("should match regardless of case", func(t *testing.T) {
		require.Equal(t, "****", moderator.Censor("DaMn"))
	})

	t.Run("should leave clean text untouched", func(t *testing.T) {
		require.Equal(t, "hello there", moderator.Censor("hello there"))
	})

	t.Run("should censor every occurrence", func(t *testing.T) {
		require.Equal(t, "**** and ****", moderator.Censor("damn and heck"))
	})
}

func TestNewModerator_Empty_List_Disables_Moderation(t *testing.T) {
	req := require.New(t)

	moderator, err := NewModerator(nil, '*')

	req.NoError(err)
	req.Nil(moderator)
}

func TestLoadWords(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "censored.txt")
	content := "damn\n\n# a comment\nheck\ndamn\n"
	req.NoError(os.WriteFile(path, []byte(content), 0o644))

	words, err := LoadWords(path)

	req.NoError(err)
	req.ElementsMatch([]string{"damn", "heck"}, words)
}

func TestLoadWords_Empty_Path(t *testing.T) {
	req := require.New(t)

	words, err := LoadWords("")

	req.NoError(err)
	req.Nil(words)
}
