// Package chapters reads plain-text novels in legacy Chinese encodings and
// cuts them into chapters by heading pattern.
//
// Splitting is line oriented: a line matching the heading pattern starts a new
// chapter only once the chapter being built has reached a minimum character
// count, so stray headings in short prefaces are folded into their
// neighbours. The Book type exposes the manual corrections an editor needs
// (merge a chapter into the previous one, split at an offset, replace text)
// and writes the result as numbered files.
package chapters
