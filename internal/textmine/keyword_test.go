package textmine

import (
	"reflect"
	"testing"
)

func TestExtractKeywords(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		exclude string
		want    []string
	}{
		{"basic", "【お知らせ】明日の[生配信]について[重要]", "", []string{"お知らせ", "生配信", "重要"}},
		{"short spans dropped", "[a]【bc】{def}", "", []string{"bc", "def"}},
		{"blocklist", "[#live]【にじさんじ/あああ】[hololive]", "", nil},
		{"lowercased", "[TEST]【test】{TeST}", "", []string{"test"}},
		{"bracket families", "[English]{Français}「にほんご」", "", []string{"english", "français", "にほんご"}},
		{"no brackets", "テストテキスト", "", nil},
		{"parentheses ignored", "【Among Us】（宇宙ゲーム）", "", []string{"among us"}},
		{
			"parentheses ignored with agency tag",
			"【 Among Us 】協力と裏切り。（ 人狼系ゲーム ）です【にじさんじ/葉山舞鈴/コラボ】",
			"",
			[]string{"among us"},
		},
		{"numbering stripped", "【Title#12】", "", []string{"title"}},
		{"fullwidth hash stripped", "【＃マイクラ肝試し2024】肝を試します【＃黒夢町】", "", nil},
		{"talent name excluded", "【雑談】今日の話【兎田ぺこら】", "兎田ぺこら", []string{"雑談"}},
		{"blocklist ignores case", "【HoloLive English】", "", nil},
		{"no newline crossing", "[abc\nxyz] 【ok!】", "", []string{"ok!"}},
		{"nearest close of any family", "[abc】def]", "", []string{"abc"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractKeywords(tc.input, tc.exclude)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ExtractKeywords(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
