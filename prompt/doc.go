// Package prompt holds the instruction template sent to the completion model.
//
// The anime template has two placeholders: context, filled with the retrieved
// documents joined by blank lines, and input, the user's query verbatim.
package prompt
