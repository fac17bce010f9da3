package batch_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"storyloader/internal/batch"
)

func TestAggregateOrdersStoriesAndCounts(t *testing.T) {
	outcomes := []batch.Outcome{
		{Kind: batch.KindEpicCreated, LocalID: batch.EpicLocalID, Title: "B epic", RemoteKey: "P-1"},
		{Kind: batch.KindStoryCreated, LocalID: 2, RemoteKey: "P-2"},
		{Kind: batch.KindEpicFailed, LocalID: batch.EpicLocalID, Title: "A epic"},
		{Kind: batch.KindStoryFailed, LocalID: 0, Reason: batch.ReasonEpicUnavailable},
		{Kind: batch.KindStoryCreated, LocalID: 1, RemoteKey: "P-3", Warning: "no comment"},
	}
	report := batch.Aggregate(outcomes)

	if report.Total != 3 || report.Successful != 2 || report.Failed != 1 || report.Warnings != 1 {
		t.Fatalf("counts = %+v", report)
	}
	var ids []int
	for _, o := range report.Stories {
		ids = append(ids, o.LocalID)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, ids); diff != "" {
		t.Fatalf("story order (-want +got):\n%s", diff)
	}
	if report.Epics[0].Title != "B epic" || report.Epics[1].Title != "A epic" {
		t.Fatalf("epic order changed: %+v", report.Epics)
	}
	if failed := report.FailedStories(); len(failed) != 1 || failed[0].LocalID != 0 {
		t.Fatalf("failed stories = %+v", failed)
	}
}

func TestAggregateEmpty(t *testing.T) {
	report := batch.Aggregate(nil)
	if report.Total != 0 || report.Stories != nil {
		t.Fatalf("unexpected report %+v", report)
	}
}
