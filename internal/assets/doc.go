// Package assets collects one visual per script section: a stock footage
// clip when the search succeeds, otherwise a locally rendered slide. A
// single failed section never fails the stage; it degrades to a slide.
package assets
