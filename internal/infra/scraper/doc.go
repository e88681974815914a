// Package scraper fetches syndicated documents (RSS, Atom, JSON Feed) and
// parses them into entity.Document values.
package scraper
