// Package classify labels figure images with one of a fixed set of
// categories.
//
// The [Gemini] classifier sends each image as PNG, together with a prompt
// listing the categories, to the Gemini generateContent API and asks for a
// JSON answer. Transient HTTP failures are retried with exponential
// backoff. A classifier never returns an error: when classification fails
// the result is [Fallback], labeled "unknown" with confidence 0.3.
// Answers naming a category outside the set are coerced to "unknown" and
// confidences are clamped to [0, 1].
package classify
