package contracts

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var keyReplacer = strings.NewReplacer(
	"(", "",
	")", "",
	"/", "_",
	"-", "_",
	" ", "_",
	"\t", "_",
)

// ProductKey normalizes a product display name into its lowercase, underscore-separated key.
// "Paneer (Cottage Cheese)" -> "paneer_cottage_cheese", "Milk/Toned" -> "milk_toned".
func ProductKey(display string) string {
	key := keyReplacer.Replace(strings.ToLower(strings.TrimSpace(display)))

	// collapse runs of underscores left by removed punctuation
	for strings.Contains(key, "__") {
		key = strings.ReplaceAll(key, "__", "_")
	}
	return strings.Trim(key, "_")
}

// DisplayName turns a product key back into a human-readable name.
// Not a perfect inverse of ProductKey: punctuation removed by the key is not restored.
func DisplayName(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}
