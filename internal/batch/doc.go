// Package batch creates normalized stories and their epics in the issue
// tracker and reports a per-item outcome for every submitted story.
//
// A batch runs three ordered stages: ensure_epics, create_stories and
// annotate_stories. Remote calls are issued one at a time. A failed epic fails
// its member stories without calling the tracker for them, a failed story
// never stops the stories after it, and a failed acceptance-criteria comment
// only adds a warning to an otherwise successful story. CreateBatch always
// returns a Report covering every submitted story.
package batch
