package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/wrongbook/pkg/domain/types"
)

func TestParseLanguage(t *testing.T) {
	t.Run("empty defaults to English", func(t *testing.T) {
		lang, err := types.ParseLanguage("")
		gt.NoError(t, err)
		gt.Value(t, lang).Equal(types.LanguageEnglish)
	})

	t.Run("supported languages parse", func(t *testing.T) {
		for _, l := range types.AllLanguages() {
			lang, err := types.ParseLanguage(l.String())
			gt.NoError(t, err)
			gt.Value(t, lang).Equal(l)
		}
	})

	t.Run("unsupported language is rejected", func(t *testing.T) {
		_, err := types.ParseLanguage("fr")
		gt.Error(t, err)
	})
}
