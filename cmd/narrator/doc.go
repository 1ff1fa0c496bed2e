// Command narrator turns plain-text novels into narrated audio with
// synchronized LRC subtitles.
//
// Subcommands cover each step on its own: "chapters split" cuts a novel into
// chapter files, "convert" narrates one file, "align" rebuilds subtitles from
// a recorded event log, and the "queue" commands batch chapters through the
// job ledger.
package main
