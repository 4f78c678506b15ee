// Package textutil provides the string helpers used to turn file and
// directory names into titles, slugs, and filesystem-safe names.
package textutil
