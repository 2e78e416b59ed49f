// Package priority classifies page elements and scores how much each one
// matters for understanding a site's structure.
//
// # Scoring model
//
// Every element gets exactly one type (navigation, button, link, form,
// header, content, media, unknown) from a fixed precedence, then a score in
// [0, 1] built from the type's base weight plus capped boosts for keyword
// hits in its text, signals in its attributes, and the tag itself.
//
// Design decision: We score with additive weights and hard caps rather
// than anything learned because:
//  1. Scores must be reproducible across runs for report diffing
//  2. Caps keep keyword-stuffed markup from outranking real navigation
//  3. Every score can be explained as a sum of named contributions
//
// Extraction walks a cleaned document tree, so the scorer only ever sees
// what survived normalization.
package priority
