package utils

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// cl100k_base is fetched on first use, so callers must tolerate errors when offline.
var encoding = sync.OnceValues(func() (*tiktoken.Tiktoken, error) {
	return tiktoken.GetEncoding("cl100k_base")
})

// CountTokens estimates how many tokens text occupies.
func CountTokens(text string) (int, error) {
	tkm, err := encoding()
	if err != nil {
		return 0, err
	}
	return len(tkm.Encode(text, nil, nil)), nil
}
