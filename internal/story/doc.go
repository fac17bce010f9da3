// Package story holds the normalized user-story model shared by the parsers and
// the batch creator.
//
// Normalize turns a raw Fragment into a Story by running a fixed, ordered list
// of extraction rules (priority token, point token, title, acceptance
// criteria, finalize). Each rule is a pure function over a draft, so markers
// that overlap in the same fragment are resolved in one predictable order.
// Normalize never fails: a fragment with nothing usable still yields a story
// carrying a positional placeholder title.
//
// GroupStories associates normalized stories with epics, either by the epic
// headings recorded on the stories or by a caller-supplied epic key.
package story
