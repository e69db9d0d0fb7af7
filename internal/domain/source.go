package domain

// Source represents the discovery pass that first returned a token.
type Source string

const (
	SourceMemeList    Source = "meme_list"
	SourcePriceMovers Source = "price_movers"
	SourceTrending    Source = "trending"
	SourceManual      Source = "manual"
)

// String returns the string representation of Source.
func (s Source) String() string {
	return string(s)
}

// IsValid checks if the source is a known value.
func (s Source) IsValid() bool {
	switch s {
	case SourceMemeList, SourcePriceMovers, SourceTrending, SourceManual:
		return true
	}
	return false
}
