package canvas

type texts struct {
	nameDefault   string
	priceDefault  string
	presetDefault string
}

var (
	textsKO = texts{
		nameDefault:   "음식 이름",
		priceDefault:  "$9.99",
		presetDefault: "내 메뉴 프리셋",
	}
	textsEN = texts{
		nameDefault:   "Item Name",
		priceDefault:  "$9.99",
		presetDefault: "My Menu Preset",
	}
)

func textsFor(lang string) texts {
	if lang == "ko" {
		return textsKO
	}
	return textsEN
}
