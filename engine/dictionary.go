package engine

import "strings"

// DictionaryEntry maps a canonical answer to the spellings that count as a
// hit for it, including the OCR-prone English labels some datasets print
// next to the Chinese answer.
type DictionaryEntry struct {
	Canonical string
	Aliases   []string
}

// Dictionary is the static vocabulary of expected answer strings. It is
// read-only configuration: built once at process start, never derived from
// runtime data.
type Dictionary struct {
	entries   []DictionaryEntry
	canonical map[string]struct{}
}

// NewDictionary builds a dictionary from explicit entries, preserving order.
func NewDictionary(entries []DictionaryEntry) *Dictionary {
	d := &Dictionary{
		entries:   entries,
		canonical: make(map[string]struct{}, len(entries)),
	}
	for _, e := range entries {
		d.canonical[e.Canonical] = struct{}{}
	}
	return d
}

// Matches returns the canonical forms whose canonical spelling or any alias
// occurs as a substring of text, in table order.
func (d *Dictionary) Matches(text string) []string {
	var hits []string
	for _, e := range d.entries {
		if strings.Contains(text, e.Canonical) {
			hits = append(hits, e.Canonical)
			continue
		}
		for _, alias := range e.Aliases {
			if alias != "" && strings.Contains(text, alias) {
				hits = append(hits, e.Canonical)
				break
			}
		}
	}
	return hits
}

// Known reports whether s is a canonical answer.
func (d *Dictionary) Known(s string) bool {
	_, ok := d.canonical[s]
	return ok
}

// Len returns the number of canonical entries.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// DefaultDictionary returns the curated answer vocabulary collected from
// every known edition of the test: animals, objects, geometric shapes and
// the monochrome placeholder cards.
func DefaultDictionary() *Dictionary {
	return NewDictionary([]DictionaryEntry{
		// Animals.
		{Canonical: "熊猫", Aliases: []string{"panda"}},
		{Canonical: "大熊猫", Aliases: nil},
		{Canonical: "兔子", Aliases: []string{"rabbit"}},
		{Canonical: "老虎", Aliases: []string{"tiger"}},
		{Canonical: "狼", Aliases: []string{"wolf"}},
		{Canonical: "骆驼", Aliases: []string{"camel"}},
		{Canonical: "马", Aliases: []string{"horse"}},
		{Canonical: "牛", Aliases: []string{"cow", "bull"}},
		{Canonical: "羊", Aliases: []string{"sheep"}},
		{Canonical: "金鱼", Aliases: []string{"goldfish"}},
		{Canonical: "蝴蝶", Aliases: []string{"butterfly"}},
		{Canonical: "蜻蜓", Aliases: []string{"dragonfly"}},
		{Canonical: "鹅", Aliases: []string{"goose"}},
		{Canonical: "燕子", Aliases: []string{"swallow"}},

		// Objects.
		{Canonical: "手枪", Aliases: []string{"pistol", "gun"}},
		{Canonical: "冲锋枪", Aliases: []string{"submachine"}},
		{Canonical: "军舰", Aliases: []string{"warship", "ship"}},
		{Canonical: "卡车", Aliases: []string{"truck"}},
		{Canonical: "摩托车", Aliases: []string{"motorcycle"}},
		{Canonical: "拖拉机", Aliases: []string{"tractor"}},
		{Canonical: "剪刀", Aliases: []string{"scissors"}},
		{Canonical: "壶", Aliases: []string{"pot", "kettle"}},
		{Canonical: "高射炮", Aliases: []string{"炮"}},

		// Geometric shapes and marker glyphs.
		{Canonical: "五角星", Aliases: []string{"星星", "star"}},
		{Canonical: "三角形", Aliases: []string{"triangle", "△"}},
		{Canonical: "圆形", Aliases: []string{"circle", "○"}},
		{Canonical: "正方形", Aliases: []string{"square", "□"}},
		{Canonical: "两颗星星", Aliases: nil},

		// Monochrome placeholder cards.
		{Canonical: "单色图-红色", Aliases: nil},
		{Canonical: "单色图-黄色", Aliases: nil},
		{Canonical: "单色图-蓝色", Aliases: nil},
		{Canonical: "单色图-绿色", Aliases: nil},
		{Canonical: "单色图-紫色", Aliases: nil},
		{Canonical: "单色图", Aliases: []string{"单色"}},
		{Canonical: "两颗", Aliases: []string{"两个"}},
	})
}
