package finance

import "strings"

// TokenizedSuffix marks a tokenized ticker, as in NVDAon.
const TokenizedSuffix = "on"

// TokenizedToTraditional removes the first "on" in the symbol, wherever it is,
// so "Bonon" maps to "Bon". Symbols without it come back unchanged.
func TokenizedToTraditional(symbol string) string {
	return strings.Replace(symbol, TokenizedSuffix, "", 1)
}

// TraditionalToTokenized appends the tokenized suffix.
func TraditionalToTokenized(symbol string) string {
	return symbol + TokenizedSuffix
}
