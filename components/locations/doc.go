// Package locations provides the neighbourhood list behind location
// autocomplete, search helpers, and a small net/http handler returning JSON
// suggestions.
//
// The handler answers GET and HEAD with the q and limit query parameters.
// The default list is embedded from data/locations.txt, one "area|city"
// entry per line.
package locations
