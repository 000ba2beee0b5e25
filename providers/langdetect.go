package providers

import "unicode"

// DetectLanguage classifies text for providers that do not declare a
// language. Character-class heuristic: when more than 30% of the letters
// fall in a CJK or Kana range the matching language wins, otherwise the
// baseline "en" is assumed.
func DetectLanguage(text string) string {
	var total, kana, hangul, han int
	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsDigit(r) {
			continue
		}
		total++
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			kana++
		case unicode.In(r, unicode.Hangul):
			hangul++
		case unicode.In(r, unicode.Han):
			han++
		}
	}
	if total == 0 {
		return "en"
	}

	threshold := float64(total) * 0.3
	switch {
	case float64(kana) > threshold:
		return "ja"
	case float64(hangul) > threshold:
		return "ko"
	case float64(han) > threshold:
		return "zh"
	}
	return "en"
}
