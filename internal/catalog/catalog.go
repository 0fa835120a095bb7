// apps/go-server/internal/catalog/catalog.go
//
// Static character catalog for the card deck.
//
// Responsibilities:
//   - Hold the fixed set of glyph/pronunciation pairs a deck is drawn from.
//   - Hand out copies so callers can never mutate the shared table.
//   - Supply small lookups (Size, Lookup) used by renderers and tests.
//
// Constraints:
//   • The table is read-only; there is no runtime override.
//   • Every glyph is unique, so a glyph identifies its pair.

package catalog

// CharacterPair is one catalog entry: the glyph shown on a card face and
// its pinyin reading shown underneath.
type CharacterPair struct {
	Character string `json:"character"`
	Meaning   string `json:"meaning"`
}

var pairs = [...]CharacterPair{
	{Character: "龙", Meaning: "lóng"},
	{Character: "凤", Meaning: "fèng"},
	{Character: "山", Meaning: "shān"},
	{Character: "水", Meaning: "shuǐ"},
	{Character: "火", Meaning: "huǒ"},
	{Character: "月", Meaning: "yuè"},
	{Character: "风", Meaning: "fēng"},
	{Character: "花", Meaning: "huā"},
	{Character: "雪", Meaning: "xuě"},
	{Character: "云", Meaning: "yún"},
	{Character: "星", Meaning: "xīng"},
	{Character: "雷", Meaning: "léi"},
}

// Pairs returns a fresh copy of the catalog in its canonical order.
func Pairs() []CharacterPair {
	out := make([]CharacterPair, len(pairs))
	copy(out, pairs[:])
	return out
}

// Size reports how many pairs the catalog holds.
func Size() int { return len(pairs) }

// Lookup returns the entry for a glyph.
func Lookup(character string) (CharacterPair, bool) {
	for _, p := range pairs {
		if p.Character == character {
			return p, true
		}
	}
	return CharacterPair{}, false
}
