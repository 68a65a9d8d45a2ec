package config

// CategoryWeights orders command sources in help output. Unknown sources sort
// after these, alphabetically.
var CategoryWeights = map[string]int{
	"core":  0,
	"chat":  10,
	"roll":  20,
	"admin": 50,
}

// CategoryWeight returns the help ordering weight of a source.
func CategoryWeight(source string) int {
	if w, ok := CategoryWeights[source]; ok {
		return w
	}
	return 100
}
