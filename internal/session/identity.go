package session

import "strconv"

// 固定的轮转调色板，顺序分配给新连接。
var palette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#fabebe",
	"#008080", "#e6beff", "#9a6324", "#800000", "#aaffc3",
}

var adjectives = []string{
	"swift", "quiet", "bold", "merry", "clever",
	"gentle", "lucky", "brave", "sunny", "witty",
}

var animals = []string{
	"otter", "falcon", "badger", "lynx", "heron",
	"marmot", "civet", "puffin", "gecko", "stoat",
}

// nextName 从两个词池组合出显示名，池用尽后追加序号保证可读且不重样。
func nextName(idx int) string {
	total := len(adjectives) * len(animals)
	name := adjectives[idx%len(adjectives)] + "-" + animals[(idx/len(adjectives))%len(animals)]
	if idx >= total {
		name += "-" + strconv.Itoa(idx/total+1)
	}
	return name
}
