package activitylog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		Action:    ActionUpload,
		Subject:   "january.csv",
		Details:   "42 rows imported",
		Outcome:   OutcomeOK,
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	err := Append(dir, testEntry())
	require.NoError(t, err)

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionUpload, entries[0].Action)
	assert.True(t, testTime.Equal(entries[0].Timestamp))
	assert.Equal(t, "42 rows imported", entries[0].Details)
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, testEntry()))

	e2 := testEntry()
	e2.Action = ActionBudgetSet
	e2.Subject = "Food"
	e2.Details = "monthly budget 6000, with, commas"
	require.NoError(t, Append(dir, e2))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionUpload, entries[0].Action)
	assert.Equal(t, ActionBudgetSet, entries[1].Action)
	assert.Equal(t, "Food", entries[1].Subject)
	assert.Equal(t, e2.Details, entries[1].Details)
}

func TestLast(t *testing.T) {
	dir := t.TempDir()
	var batch []Entry
	for i := 0; i < 5; i++ {
		e := testEntry()
		e.Timestamp = testTime.Add(time.Duration(i) * time.Minute)
		batch = append(batch, e)
	}
	require.NoError(t, Append(dir, batch...))

	entries, err := Last(dir, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, testTime.Add(3*time.Minute).Equal(entries[0].Timestamp))
	assert.True(t, testTime.Add(4*time.Minute).Equal(entries[1].Timestamp))

	all, err := Last(dir, 10)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestRead_NotFound(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "activity.csv"), []byte(Header+"\n"), 0o644))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_BadTimestamp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	data := Header + "\nyesterday,upload,a.csv,,ok\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "activity.csv"), []byte(data), 0o644))

	_, err := Read(dir)
	assert.ErrorContains(t, err, "row 2: parsing timestamp")
}

func TestUnmarshalEntry_BadFieldCount(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expected 5 fields")
}

func TestTimestampFormat(t *testing.T) {
	row := MarshalEntry(testEntry())
	assert.Equal(t, "2025-01-15T10:30:00Z", row[0])
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeOK, Outcome(nil))
	assert.Equal(t, OutcomeFailed, Outcome(errors.New("boom")))
}
