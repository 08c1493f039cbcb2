package gemini

// Classify is exported for testing
var Classify = classify
