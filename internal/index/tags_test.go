package index

import (
	"reflect"
	"testing"

	"github.com/cleanwk/bookdex/internal/models"
)

func testTags(t *testing.T) (*DB, *Tags) {
	t.Helper()
	db := testDB(t)
	if err := db.ReplaceAll([]models.Bookmark{
		bm("1", "A", "https://a.test", ""),
		bm("2", "B", "https://b.test", ""),
		bm("3", "C", "https://c.test", ""),
	}, "fp"); err != nil {
		t.Fatal(err)
	}
	return db, NewTags(db)
}

func TestAddTagsPreservesCase(t *testing.T) {
	_, tags := testTags(t)
	inserted, err := tags.AddTags("1", []string{" Go ", "go", "reading", ""})
	if err != nil {
		t.Fatalf("AddTags: %v", err)
	}
	if inserted != 3 {
		t.Errorf("inserted = %d, want 3", inserted)
	}
	got, err := tags.TagsFor([]string{"1"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"Go", "go", "reading"}; !reflect.DeepEqual(got["1"], want) {
		t.Errorf("TagsFor = %v, want %v", got["1"], want)
	}
}

func TestAddTagsCountsOnlyNewPairs(t *testing.T) {
	_, tags := testTags(t)
	inserted, err := tags.AddTags("1", []string{"a", "a", " "})
	if err != nil {
		t.Fatalf("AddTags: %v", err)
	}
	if inserted != 1 {
		t.Errorf("first call inserted = %d, want 1", inserted)
	}
	inserted, err = tags.AddTags("1", []string{"a", "a", " "})
	if err != nil {
		t.Fatal(err)
	}
	if inserted != 0 {
		t.Errorf("second call inserted = %d, want 0", inserted)
	}
	got, err := tags.TagsFor([]string{"1"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a"}; !reflect.DeepEqual(got["1"], want) {
		t.Errorf("TagsFor = %v, want %v", got["1"], want)
	}
}

func TestRemoveTagIsCaseSensitive(t *testing.T) {
	_, tags := testTags(t)
	_, _ = tags.AddTags("1", []string{"go"})

	removed, err := tags.RemoveTag("1", "GO")
	if err != nil {
		t.Fatalf("RemoveTag: %v", err)
	}
	if removed {
		t.Error("removing a differently-cased tag must not match")
	}
	removed, err = tags.RemoveTag("1", " go ")
	if err != nil {
		t.Fatal(err)
	}
	if !removed {
		t.Error("expected removal of trimmed exact-case tag")
	}
	removed, err = tags.RemoveTag("1", "go")
	if err != nil {
		t.Fatal(err)
	}
	if removed {
		t.Error("second removal must report false")
	}
}

func TestRemoveAllTags(t *testing.T) {
	_, tags := testTags(t)
	_, _ = tags.AddTags("1", []string{"a", "b", "c"})

	n, err := tags.RemoveAllTags("1")
	if err != nil {
		t.Fatalf("RemoveAllTags: %v", err)
	}
	if n != 3 {
		t.Errorf("removed %d, want 3", n)
	}
}

func TestFindByTagsRequiresAll(t *testing.T) {
	_, tags := testTags(t)
	_, _ = tags.AddTags("1", []string{"go", "reading"})
	_, _ = tags.AddTags("2", []string{"go"})
	_, _ = tags.AddTags("3", []string{"reading"})

	ids, err := tags.FindByTags([]string{"go", "reading"})
	if err != nil {
		t.Fatalf("FindByTags: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("FindByTags = %v", ids)
	}
	if _, ok := ids["1"]; !ok {
		t.Errorf("expected bookmark 1, got %v", ids)
	}

	ids, err = tags.FindByTags([]string{"GO"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("tag lookup is case-sensitive, got %v", ids)
	}

	ids, err = tags.FindByTags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if ids != nil {
		t.Errorf("no tags means no constraint, got %v", ids)
	}
}

func TestTagsForBatchesIDs(t *testing.T) {
	_, tags := testTags(t)
	_, _ = tags.AddTags("1", []string{"zeta", "alpha"})
	_, _ = tags.AddTags("3", []string{"go"})

	got, err := tags.TagsFor([]string{"1", "2", "3"})
	if err != nil {
		t.Fatalf("TagsFor: %v", err)
	}
	want := map[string][]string{
		"1": {"alpha", "zeta"},
		"3": {"go"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TagsFor = %v, want %v", got, want)
	}

	got, err = tags.TagsFor(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("TagsFor(nil) = %v, want empty", got)
	}
}

func TestRenameMergesOnCollision(t *testing.T) {
	_, tags := testTags(t)
	_, _ = tags.AddTags("1", []string{"golang"})
	_, _ = tags.AddTags("2", []string{"golang", "go"})

	affected, err := tags.Rename("golang", "go")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if affected != 2 {
		t.Errorf("affected = %d, want 2", affected)
	}

	got, err := tags.TagsFor([]string{"1", "2"})
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"1", "2"} {
		if want := []string{"go"}; !reflect.DeepEqual(got[id], want) {
			t.Errorf("TagsFor(%s) = %v, want %v", id, got[id], want)
		}
	}
}

func TestRenameNoopOnSameTag(t *testing.T) {
	_, tags := testTags(t)
	_, _ = tags.AddTags("1", []string{"go"})
	affected, err := tags.Rename(" go ", "go")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if affected != 0 {
		t.Errorf("affected = %d, want 0", affected)
	}
}

func TestRenameChangesCase(t *testing.T) {
	_, tags := testTags(t)
	_, _ = tags.AddTags("1", []string{"GO"})

	affected, err := tags.Rename("GO", "go")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if affected != 1 {
		t.Errorf("affected = %d, want 1", affected)
	}
	got, err := tags.TagsFor([]string{"1"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"go"}; !reflect.DeepEqual(got["1"], want) {
		t.Errorf("TagsFor = %v, want %v", got["1"], want)
	}
}

func TestAllTagsOrdering(t *testing.T) {
	_, tags := testTags(t)
	_, _ = tags.AddTags("1", []string{"go", "zeta"})
	_, _ = tags.AddTags("2", []string{"go", "alpha"})
	_, _ = tags.AddTags("3", []string{"go"})

	got, err := tags.AllTags()
	if err != nil {
		t.Fatalf("AllTags: %v", err)
	}
	want := []models.TagCount{
		{Tag: "go", Count: 3},
		{Tag: "alpha", Count: 1},
		{Tag: "zeta", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AllTags = %v, want %v", got, want)
	}
}

func TestTaggedCount(t *testing.T) {
	_, tags := testTags(t)
	_, _ = tags.AddTags("1", []string{"a", "b"})
	_, _ = tags.AddTags("2", []string{"a"})

	n, err := tags.TaggedCount()
	if err != nil {
		t.Fatalf("TaggedCount: %v", err)
	}
	if n != 2 {
		t.Errorf("TaggedCount = %d, want 2", n)
	}
}
