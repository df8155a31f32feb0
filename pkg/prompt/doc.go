// Package prompt loads and renders the prompt templates used by model-calling nodes.
//
// Templates live either in a single markdown file, where every "#" or "##" heading
// starts a named section, or in a loam repository with one markdown document per
// prompt. Placeholders are written as {name} and filled by Render.
package prompt
