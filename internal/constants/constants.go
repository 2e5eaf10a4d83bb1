package constants

// DummyAPIKey is used as a placeholder when connecting to OpenAI-compatible services
// that don't require authentication. Many services expect a token in the request
// header but don't validate it.
const DummyAPIKey = "not-needed"

// PlaceholderAnswer is the marker the scraper writes when a card page carried
// no usable answer text. Entries holding it are treated as unresolved.
const PlaceholderAnswer = "1查看色弱滤镜"
