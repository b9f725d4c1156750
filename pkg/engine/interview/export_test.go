package interview

// FallbackOpenings exposes the fallback opening questions to external tests.
var FallbackOpenings = fallbackOpenings
