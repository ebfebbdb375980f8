package lobby

// Palette is the fixed set of player colors.
var Palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#FFEEAD", "#D4A5A5", "#9B59B6", "#3498DB",
	"#E67E22", "#2ECC71",
}

// pickColor chooses uniformly among unused colors, or among the whole palette
// once every color is taken.
func pickColor(used map[string]bool, intn func(n int) int) string {
	free := make([]string, 0, len(Palette))
	for _, c := range Palette {
		if !used[c] {
			free = append(free, c)
		}
	}
	if len(free) == 0 {
		free = Palette
	}
	return free[intn(len(free))]
}
